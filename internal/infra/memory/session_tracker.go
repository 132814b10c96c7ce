package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-conductor/internal/domain"
)

// SessionTracker is an in-memory implementation of app.SessionTracker.
type SessionTracker struct {
	mu       sync.RWMutex
	sessions map[string]map[string]domain.ActiveSession // quizID -> student -> session
}

func NewSessionTracker() *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]map[string]domain.ActiveSession),
	}
}

func (t *SessionTracker) Upsert(_ context.Context, session domain.ActiveSession) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	byStudent, ok := t.sessions[session.QuizID]
	if !ok {
		byStudent = make(map[string]domain.ActiveSession)
		t.sessions[session.QuizID] = byStudent
	}
	byStudent[session.StudentUsername] = session
	return nil
}

func (t *SessionTracker) Get(_ context.Context, key domain.SessionKey) (domain.ActiveSession, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	session, ok := t.sessions[key.QuizID][key.StudentUsername]
	return session, ok, nil
}

func (t *SessionTracker) Delete(_ context.Context, key domain.SessionKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	byStudent, ok := t.sessions[key.QuizID]
	if !ok {
		return nil
	}
	delete(byStudent, key.StudentUsername)
	if len(byStudent) == 0 {
		delete(t.sessions, key.QuizID)
	}
	return nil
}

func (t *SessionTracker) ListActive(_ context.Context, quizID string) ([]domain.ActiveSession, error) {
	t.mu.RLock()
	out := make([]domain.ActiveSession, 0, len(t.sessions[quizID]))
	for _, s := range t.sessions[quizID] {
		out = append(out, s)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StudentUsername < out[j].StudentUsername })
	return out, nil
}
