package memory

import (
	"context"
	"sync"

	"quiz-conductor/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore.
// Insert is a conditional write: the first result for a pair wins.
type ResultStore struct {
	mu      sync.RWMutex
	results map[domain.SessionKey]domain.Result
	order   []domain.SessionKey
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[domain.SessionKey]domain.Result)}
}

func (s *ResultStore) FindOne(_ context.Context, key domain.SessionKey) (domain.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[key]
	return r, ok, nil
}

func (s *ResultStore) Insert(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := result.Key()
	if _, exists := s.results[key]; exists {
		return domain.ErrDuplicateResult
	}
	s.results[key] = result
	s.order = append(s.order, key)
	return nil
}

// ListByQuiz returns the quiz's results in insertion order.
func (s *ResultStore) ListByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for _, key := range s.order {
		if key.QuizID == quizID {
			out = append(out, s.results[key])
		}
	}
	return out, nil
}
