package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-conductor/internal/domain"
)

// QuizStore persists quizzes with their questions as JSONB. It also serves as
// the loader behind the quiz caches.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, topic, duration_seconds, host_username, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		quiz.ID, quiz.Topic, quiz.DurationSeconds, quiz.HostUsername, questions, quiz.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateQuiz
		}
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz domain.Quiz
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, topic, duration_seconds, host_username, questions, created_at
		 FROM quizzes WHERE id=$1`, quizID,
	).Scan(&quiz.ID, &quiz.Topic, &quiz.DurationSeconds, &quiz.HostUsername, &raw, &quiz.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) ListByHost(ctx context.Context, host string) ([]domain.QuizSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, topic, duration_seconds, jsonb_array_length(questions), created_at
		 FROM quizzes WHERE host_username=$1
		 ORDER BY created_at DESC, id`, host,
	)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var q domain.QuizSummary
		if err := rows.Scan(&q.ID, &q.Topic, &q.DurationSeconds, &q.QuestionCount, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
