package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"quiz-conductor/internal/domain"
)

// ResultStore keeps results in one hash per quiz. HSETNX makes the first
// submission for a student the only one.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) FindOne(ctx context.Context, key domain.SessionKey) (domain.Result, bool, error) {
	raw, err := s.client.HGet(ctx, resultsKey(key.QuizID), key.StudentUsername).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Result{}, false, nil
		}
		return domain.Result{}, false, fmt.Errorf("find result: %w", err)
	}
	var r domain.Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.Result{}, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return r, true, nil
}

func (s *ResultStore) Insert(ctx context.Context, result domain.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	stored, err := s.client.HSetNX(ctx, resultsKey(result.QuizID), result.StudentUsername, raw).Result()
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if !stored {
		return domain.ErrDuplicateResult
	}
	return nil
}

func (s *ResultStore) ListByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	entries, err := s.client.HGetAll(ctx, resultsKey(quizID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(entries))
	for student, raw := range entries {
		var r domain.Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			slog.Warn("skipping unreadable result", "quiz_id", quizID, "student", student, "error", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
