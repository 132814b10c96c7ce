package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"quiz-conductor/internal/domain"
)

// HostMonitor is the read side shown to a quiz's host: who is taking the quiz
// right now and who has finished. It never writes.
type HostMonitor struct {
	quizzes QuizRepository
	tracker SessionTracker
	results ResultStore
	now     func() time.Time
}

func NewHostMonitor(quizzes QuizRepository, tracker SessionTracker, results ResultStore) *HostMonitor {
	return NewHostMonitorWithClock(quizzes, tracker, results, time.Now)
}

// NewHostMonitorWithClock is test-only for deterministic timestamps.
func NewHostMonitorWithClock(quizzes QuizRepository, tracker SessionTracker, results ResultStore, now func() time.Time) *HostMonitor {
	return &HostMonitor{quizzes: quizzes, tracker: tracker, results: results, now: now}
}

// Progress returns the active and completed students of a quiz owned by host.
func (m *HostMonitor) Progress(ctx context.Context, host, quizID string) (domain.Progress, error) {
	quiz, err := m.ownedQuiz(ctx, host, quizID)
	if err != nil {
		return domain.Progress{}, err
	}

	var (
		active  []domain.ActiveSession
		results []domain.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = m.tracker.ListActive(gctx, quizID)
		if err != nil {
			return fmt.Errorf("list active sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		results, err = m.results.ListByQuiz(gctx, quizID)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Progress{}, err
	}

	now := m.now()
	sortResults(results)

	finished := make(map[string]struct{}, len(results))
	for _, r := range results {
		finished[r.StudentUsername] = struct{}{}
	}

	// A student with a result is completed even if the tracker record lingers.
	activeNow := make([]domain.ActiveStudent, 0, len(active))
	for _, s := range active {
		if _, done := finished[s.StudentUsername]; done {
			continue
		}
		left := domain.TimeLeft(now, s.StartTime, quiz.Duration())
		activeNow = append(activeNow, domain.ActiveStudent{
			StudentUsername: s.StudentUsername,
			StartedAt:       s.StartTime,
			TimeLeftSeconds: domain.WholeSeconds(left),
			Overdue:         left == 0,
		})
	}
	sort.Slice(activeNow, func(i, j int) bool {
		if !activeNow[i].StartedAt.Equal(activeNow[j].StartedAt) {
			return activeNow[i].StartedAt.Before(activeNow[j].StartedAt)
		}
		return activeNow[i].StudentUsername < activeNow[j].StudentUsername
	})

	if results == nil {
		results = []domain.Result{}
	}
	return domain.Progress{
		QuizID:      quiz.ID,
		Topic:       quiz.Topic,
		ActiveNow:   activeNow,
		Completed:   results,
		GeneratedAt: now,
	}, nil
}

// ExportCSV renders the completed results of a quiz owned by host.
func (m *HostMonitor) ExportCSV(ctx context.Context, host, quizID string) ([]byte, error) {
	if _, err := m.ownedQuiz(ctx, host, quizID); err != nil {
		return nil, err
	}
	results, err := m.results.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	sortResults(results)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"rank", "quizId", "studentUsername", "score", "totalQuestions", "submittedAt"})
	for i, r := range results {
		_ = w.Write([]string{
			strconv.Itoa(i + 1),
			r.QuizID,
			r.StudentUsername,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.TotalQuestions),
			r.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *HostMonitor) ownedQuiz(ctx context.Context, host, quizID string) (domain.Quiz, error) {
	quiz, err := m.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.HostUsername != host {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

// sortResults orders by score, then earlier submission, then name.
func sortResults(results []domain.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].SubmittedAt.Equal(results[j].SubmittedAt) {
			return results[i].SubmittedAt.Before(results[j].SubmittedAt)
		}
		return results[i].StudentUsername < results[j].StudentUsername
	})
}
