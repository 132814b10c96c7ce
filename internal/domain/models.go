package domain

import "time"

// Role is one of the two fixed account roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleHost    Role = "host"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleHost
}

// User is an account in the identity store.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Question is a multiple-choice question with four options and one correct answer.
// The JSON shape matches what the content generator emits.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

// Quiz is an immutable quiz definition created by a host.
type Quiz struct {
	ID              string     `json:"quizId"`
	Topic           string     `json:"topic"`
	DurationSeconds int        `json:"durationInSeconds"`
	Questions       []Question `json:"questions"`
	HostUsername    string     `json:"host"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Duration returns the time limit of the quiz.
func (q Quiz) Duration() time.Duration {
	return time.Duration(q.DurationSeconds) * time.Second
}

// Clone returns a copy of q that shares no slices with it.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		opts := make([]string, len(question.Options))
		copy(opts, question.Options)
		question.Options = opts
		out.Questions[i] = question
	}
	return out
}

// QuizSummary is the listing view of a quiz for its host.
type QuizSummary struct {
	ID              string    `json:"quizId"`
	Topic           string    `json:"topic"`
	DurationSeconds int       `json:"durationInSeconds"`
	QuestionCount   int       `json:"questionCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Summary builds the listing view of q.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:              q.ID,
		Topic:           q.Topic,
		DurationSeconds: q.DurationSeconds,
		QuestionCount:   len(q.Questions),
		CreatedAt:       q.CreatedAt,
	}
}

// SessionKey identifies one student's attempt at one quiz.
type SessionKey struct {
	QuizID          string
	StudentUsername string
}

func (k SessionKey) String() string {
	return k.QuizID + "/" + k.StudentUsername
}

// ActiveSession marks a student as currently taking a quiz.
type ActiveSession struct {
	QuizID          string    `json:"quizId"`
	StudentUsername string    `json:"studentUsername"`
	StartTime       time.Time `json:"startTime"`
}

func (s ActiveSession) Key() SessionKey {
	return SessionKey{QuizID: s.QuizID, StudentUsername: s.StudentUsername}
}

// Result is the permanent record of a completed attempt.
type Result struct {
	QuizID          string    `json:"quizId"`
	StudentUsername string    `json:"studentUsername"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"totalQuestions"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

func (r Result) Key() SessionKey {
	return SessionKey{QuizID: r.QuizID, StudentUsername: r.StudentUsername}
}

// Answers maps a question index (decimal string) to the selected option text.
type Answers map[string]string

// RegisterRequest creates an account. Host accounts need the admin code.
type RegisterRequest struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	AdminCode string `json:"adminCode"`
}

// LoginRequest authenticates an account; a non-empty Role must match the account.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// LoginResult is a signed token plus the account it was issued for.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
