package domain

// Difficulty levels accepted by the content generator.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// GenerateRequest asks a content generator for a set of questions.
type GenerateRequest struct {
	Topic      string
	Difficulty string
	Count      int
}

// CreateQuizRequest is a host's request to create a new quiz.
type CreateQuizRequest struct {
	Topic           string `json:"topic"`
	Difficulty      string `json:"difficulty"`
	NumQuestions    int    `json:"numQuestions"`
	DurationMinutes int    `json:"durationMinutes"`
}

// CreatedQuiz is returned to the host after creation.
type CreatedQuiz struct {
	Quiz      Quiz   `json:"quiz"`
	ShareLink string `json:"shareLink"`
	Fallback  bool   `json:"fallback"`
}

// Invitation is one email invitation to take a quiz.
type Invitation struct {
	To      string
	QuizID  string
	Topic   string
	Link    string
	Subject string
}

// FailedInvite records why one address could not be reached.
type FailedInvite struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// InviteReport summarizes a batch of invitations.
type InviteReport struct {
	QuizID string         `json:"quizId"`
	Sent   int            `json:"sent"`
	Failed []FailedInvite `json:"failed,omitempty"`
}
