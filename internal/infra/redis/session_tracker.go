package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-conductor/internal/domain"
)

// SessionTracker keeps active sessions in one hash per quiz:
//
//	HSET quiz:{quizID}:active {student} {RFC3339Nano start}
//
// Records carry no TTL; abandoned sessions stay until the student returns.
type SessionTracker struct {
	client *redis.Client
}

func NewSessionTracker(client *redis.Client) *SessionTracker {
	return &SessionTracker{client: client}
}

func (t *SessionTracker) Upsert(ctx context.Context, session domain.ActiveSession) error {
	err := t.client.HSet(ctx, activeKey(session.QuizID),
		session.StudentUsername, session.StartTime.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("upsert active session: %w", err)
	}
	return nil
}

func (t *SessionTracker) Get(ctx context.Context, key domain.SessionKey) (domain.ActiveSession, bool, error) {
	raw, err := t.client.HGet(ctx, activeKey(key.QuizID), key.StudentUsername).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ActiveSession{}, false, nil
		}
		return domain.ActiveSession{}, false, fmt.Errorf("get active session: %w", err)
	}
	start, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.ActiveSession{}, false, fmt.Errorf("parse start time %q: %w", raw, err)
	}
	return domain.ActiveSession{QuizID: key.QuizID, StudentUsername: key.StudentUsername, StartTime: start}, true, nil
}

func (t *SessionTracker) Delete(ctx context.Context, key domain.SessionKey) error {
	if err := t.client.HDel(ctx, activeKey(key.QuizID), key.StudentUsername).Err(); err != nil {
		return fmt.Errorf("delete active session: %w", err)
	}
	return nil
}

func (t *SessionTracker) ListActive(ctx context.Context, quizID string) ([]domain.ActiveSession, error) {
	entries, err := t.client.HGetAll(ctx, activeKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	out := make([]domain.ActiveSession, 0, len(entries))
	for student, raw := range entries {
		start, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			slog.Warn("skipping unreadable active session", "quiz_id", quizID, "student", student, "error", err)
			continue
		}
		out = append(out, domain.ActiveSession{QuizID: quizID, StudentUsername: student, StartTime: start})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentUsername < out[j].StudentUsername })
	return out, nil
}
