package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-conductor/internal/domain"
)

type SessionTracker struct {
	pool *pgxpool.Pool
}

func NewSessionTracker(pool *pgxpool.Pool) *SessionTracker {
	return &SessionTracker{pool: pool}
}

func (t *SessionTracker) Upsert(ctx context.Context, session domain.ActiveSession) error {
	_, err := t.pool.Exec(ctx,
		`INSERT INTO active_sessions (quiz_id, student_username, start_time)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (quiz_id, student_username) DO UPDATE SET start_time = EXCLUDED.start_time`,
		session.QuizID, session.StudentUsername, session.StartTime,
	)
	if err != nil {
		return fmt.Errorf("upsert active session: %w", err)
	}
	return nil
}

func (t *SessionTracker) Get(ctx context.Context, key domain.SessionKey) (domain.ActiveSession, bool, error) {
	s := domain.ActiveSession{QuizID: key.QuizID, StudentUsername: key.StudentUsername}
	err := t.pool.QueryRow(ctx,
		`SELECT start_time FROM active_sessions WHERE quiz_id=$1 AND student_username=$2`,
		key.QuizID, key.StudentUsername,
	).Scan(&s.StartTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ActiveSession{}, false, nil
		}
		return domain.ActiveSession{}, false, fmt.Errorf("get active session: %w", err)
	}
	return s, true, nil
}

func (t *SessionTracker) Delete(ctx context.Context, key domain.SessionKey) error {
	_, err := t.pool.Exec(ctx,
		`DELETE FROM active_sessions WHERE quiz_id=$1 AND student_username=$2`,
		key.QuizID, key.StudentUsername,
	)
	if err != nil {
		return fmt.Errorf("delete active session: %w", err)
	}
	return nil
}

func (t *SessionTracker) ListActive(ctx context.Context, quizID string) ([]domain.ActiveSession, error) {
	rows, err := t.pool.Query(ctx,
		`SELECT student_username, start_time FROM active_sessions
		 WHERE quiz_id=$1 ORDER BY student_username`, quizID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ActiveSession, 0)
	for rows.Next() {
		s := domain.ActiveSession{QuizID: quizID}
		if err := rows.Scan(&s.StudentUsername, &s.StartTime); err != nil {
			return nil, fmt.Errorf("scan active session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
