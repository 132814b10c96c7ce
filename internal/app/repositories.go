package app

import (
	"context"

	"quiz-conductor/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore persists quiz definitions.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	ListByHost(ctx context.Context, host string) ([]domain.QuizSummary, error)
}

// SessionTracker records which students are currently taking a quiz.
// Delete, Get and ListActive never fail on a missing record.
type SessionTracker interface {
	Upsert(ctx context.Context, session domain.ActiveSession) error
	Get(ctx context.Context, key domain.SessionKey) (domain.ActiveSession, bool, error)
	Delete(ctx context.Context, key domain.SessionKey) error
	ListActive(ctx context.Context, quizID string) ([]domain.ActiveSession, error)
}

// ResultStore records completed attempts. Insert must fail with
// domain.ErrDuplicateResult when the pair already has a result.
type ResultStore interface {
	FindOne(ctx context.Context, key domain.SessionKey) (domain.Result, bool, error)
	Insert(ctx context.Context, result domain.Result) error
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
}

// UserStore is the identity store. CreateUser returns domain.ErrUsernameTaken for
// duplicates and GetUser returns domain.ErrUserNotFound for unknown usernames.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, username string) (domain.User, error)
}

// QuestionGenerator produces quiz content, e.g. from an AI model.
type QuestionGenerator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.Question, error)
}

// Mailer opens a delivery session for a batch of invitations.
type Mailer interface {
	Open(ctx context.Context) (MailSession, error)
}

// MailSession delivers invitations one at a time over a single connection.
type MailSession interface {
	Send(ctx context.Context, invite domain.Invitation) error
	Close() error
}
