package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-conductor/internal/domain"
)

// QuizStore keeps quiz definitions in process memory. It is both the
// app.QuizStore and the QuizLoader behind a QuizRepository.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

// NewQuizStore returns a store seeded with the given quizzes.
func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{quizzes: make(map[string]domain.Quiz, len(seed))}
	for _, q := range seed {
		s.quizzes[q.ID] = q.Clone()
	}
	return s
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.quizzes[quiz.ID]; exists {
		return domain.ErrDuplicateQuiz
	}
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

// ListByHost returns the host's quizzes, newest first.
func (s *QuizStore) ListByHost(_ context.Context, host string) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	out := make([]domain.QuizSummary, 0)
	for _, q := range s.quizzes {
		if q.HostUsername == host {
			out = append(out, q.Summary())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
