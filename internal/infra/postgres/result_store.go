package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-conductor/internal/domain"
)

// ResultStore keeps one row per (quiz, student); the primary key makes the
// first insert win.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) FindOne(ctx context.Context, key domain.SessionKey) (domain.Result, bool, error) {
	r := domain.Result{QuizID: key.QuizID, StudentUsername: key.StudentUsername}
	err := s.pool.QueryRow(ctx,
		`SELECT score, total_questions, submitted_at FROM results
		 WHERE quiz_id=$1 AND student_username=$2`,
		key.QuizID, key.StudentUsername,
	).Scan(&r.Score, &r.TotalQuestions, &r.SubmittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Result{}, false, nil
		}
		return domain.Result{}, false, fmt.Errorf("find result: %w", err)
	}
	return r, true, nil
}

func (s *ResultStore) Insert(ctx context.Context, result domain.Result) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO results (quiz_id, student_username, score, total_questions, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (quiz_id, student_username) DO NOTHING`,
		result.QuizID, result.StudentUsername, result.Score, result.TotalQuestions, result.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateResult
	}
	return nil
}

func (s *ResultStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT student_username, score, total_questions, submitted_at FROM results
		 WHERE quiz_id=$1 ORDER BY submitted_at`, quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Result, 0)
	for rows.Next() {
		r := domain.Result{QuizID: quizID}
		if err := rows.Scan(&r.StudentUsername, &r.Score, &r.TotalQuestions, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
