package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-conductor/internal/domain"
)

// SessionEngine drives a student's timed attempt at a quiz:
// NotStarted -> InProgress -> Submitted, or AlreadyCompleted when a result exists.
// All state is reconstructed from the stores on every call; there are no timers.
type SessionEngine struct {
	quizzes QuizRepository
	tracker SessionTracker
	results ResultStore
	now     func() time.Time
	submits singleflight.Group
}

func NewSessionEngine(quizzes QuizRepository, tracker SessionTracker, results ResultStore) *SessionEngine {
	return NewSessionEngineWithClock(quizzes, tracker, results, time.Now)
}

// NewSessionEngineWithClock is test-only for deterministic timestamps.
func NewSessionEngineWithClock(quizzes QuizRepository, tracker SessionTracker, results ResultStore, now func() time.Time) *SessionEngine {
	return &SessionEngine{
		quizzes: quizzes,
		tracker: tracker,
		results: results,
		now:     now,
	}
}

// attempt is the reconstructed state of one (quiz, student) pair.
type attempt struct {
	key       domain.SessionKey
	quiz      domain.Quiz
	questions domain.QuestionSet
	state     domain.SessionState
	active    domain.ActiveSession
	result    domain.Result
}

// Observe evaluates the attempt. An in-progress attempt whose time has run out is
// submitted with the given answers, exactly as if the student had pressed submit.
func (e *SessionEngine) Observe(ctx context.Context, key domain.SessionKey, answers domain.Answers) (domain.SessionView, error) {
	a, err := e.load(ctx, key)
	if err != nil {
		return domain.SessionView{}, err
	}
	now := e.now()
	if e.expired(a, now) {
		return e.submit(ctx, a, answers, true)
	}
	return e.view(a, now), nil
}

// Start moves a NotStarted attempt to InProgress. Starting an attempt that is
// already running keeps the persisted start time.
func (e *SessionEngine) Start(ctx context.Context, key domain.SessionKey) (domain.SessionView, error) {
	a, err := e.load(ctx, key)
	if err != nil {
		return domain.SessionView{}, err
	}
	now := e.now()

	switch a.state {
	case domain.StateNotStarted:
		session := domain.ActiveSession{
			QuizID:          key.QuizID,
			StudentUsername: key.StudentUsername,
			StartTime:       now,
		}
		if err := e.tracker.Upsert(ctx, session); err != nil {
			return domain.SessionView{}, fmt.Errorf("record session start: %w", err)
		}
		slog.Info("quiz session started", "quiz_id", key.QuizID, "student", key.StudentUsername)
		a.state = domain.StateInProgress
		a.active = session
	case domain.StateInProgress:
		if e.expired(a, now) {
			return e.submit(ctx, a, nil, true)
		}
	}
	return e.view(a, now), nil
}

// Submit scores the answers and records the result. Submitting an attempt that is
// already complete is a no-op that returns the stored score.
func (e *SessionEngine) Submit(ctx context.Context, key domain.SessionKey, answers domain.Answers) (domain.SessionView, error) {
	a, err := e.load(ctx, key)
	if err != nil {
		return domain.SessionView{}, err
	}

	switch a.state {
	case domain.StateNotStarted:
		return domain.SessionView{}, domain.ErrSessionNotStarted
	case domain.StateAlreadyCompleted:
		return e.view(a, e.now()), nil
	}
	return e.submit(ctx, a, answers, false)
}

func (e *SessionEngine) load(ctx context.Context, key domain.SessionKey) (attempt, error) {
	if key.QuizID == "" || key.StudentUsername == "" {
		return attempt{}, fmt.Errorf("%w: quiz id and student are required", domain.ErrValidation)
	}

	quiz, err := e.quizzes.GetQuiz(ctx, key.QuizID)
	if err != nil {
		return attempt{}, err
	}
	a := attempt{
		key:       key,
		quiz:      quiz,
		questions: domain.PrepareQuestions(quiz.Questions),
		state:     domain.StateNotStarted,
	}

	// A stored result wins over everything else.
	result, done, err := e.results.FindOne(ctx, key)
	if err != nil {
		return attempt{}, fmt.Errorf("find result: %w", err)
	}
	if done {
		a.state = domain.StateAlreadyCompleted
		a.result = result
		e.dropLeftoverSession(ctx, key)
		return a, nil
	}

	active, running, err := e.tracker.Get(ctx, key)
	if err != nil {
		return attempt{}, fmt.Errorf("load active session: %w", err)
	}
	if running {
		a.state = domain.StateInProgress
		a.active = active
	}
	return a, nil
}

func (e *SessionEngine) expired(a attempt, now time.Time) bool {
	return a.state == domain.StateInProgress &&
		domain.TimeLeft(now, a.active.StartTime, a.quiz.Duration()) == 0
}

// submitTimeout bounds the shared store write of a collapsed submission.
const submitTimeout = 10 * time.Second

// submit collapses concurrent submissions of the same pair into one store write.
// The write is detached from the caller's cancellation since other callers wait on it.
func (e *SessionEngine) submit(ctx context.Context, a attempt, answers domain.Answers, auto bool) (domain.SessionView, error) {
	v, err, _ := e.submits.Do(a.key.String(), func() (interface{}, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), submitTimeout)
		defer cancel()
		return e.finish(wctx, a, answers, auto)
	})
	if err != nil {
		return domain.SessionView{}, err
	}
	return v.(domain.SessionView), nil
}

func (e *SessionEngine) finish(ctx context.Context, a attempt, answers domain.Answers, auto bool) (domain.SessionView, error) {
	now := e.now()
	result := domain.Result{
		QuizID:          a.key.QuizID,
		StudentUsername: a.key.StudentUsername,
		Score:           a.questions.Score(answers),
		TotalQuestions:  a.questions.Total,
		SubmittedAt:     now,
	}

	if err := e.results.Insert(ctx, result); err != nil {
		if !errors.Is(err, domain.ErrDuplicateResult) {
			// The active session stays so the attempt can be retried.
			return domain.SessionView{}, fmt.Errorf("record result: %w", err)
		}
		stored, ok, ferr := e.results.FindOne(ctx, a.key)
		if ferr != nil {
			return domain.SessionView{}, fmt.Errorf("find result: %w", ferr)
		}
		if !ok {
			return domain.SessionView{}, fmt.Errorf("record result: %w", err)
		}
		slog.Info("duplicate submission ignored", "quiz_id", a.key.QuizID, "student", a.key.StudentUsername)
		a.state = domain.StateAlreadyCompleted
		a.result = stored
		return e.view(a, now), nil
	}

	if err := e.tracker.Delete(ctx, a.key); err != nil {
		// The result is authoritative; the leftover record is dropped on the next load.
		slog.Warn("failed to remove active session", "quiz_id", a.key.QuizID, "student", a.key.StudentUsername, "error", err)
	}
	slog.Info("quiz submitted",
		"quiz_id", a.key.QuizID,
		"student", a.key.StudentUsername,
		"score", result.Score,
		"total", result.TotalQuestions,
		"auto", auto,
	)

	a.state = domain.StateSubmitted
	a.result = result
	v := e.view(a, now)
	v.AutoSubmitted = auto
	return v, nil
}

func (e *SessionEngine) dropLeftoverSession(ctx context.Context, key domain.SessionKey) {
	_, ok, err := e.tracker.Get(ctx, key)
	if err != nil || !ok {
		return
	}
	if err := e.tracker.Delete(ctx, key); err != nil {
		slog.Warn("failed to remove leftover active session", "quiz_id", key.QuizID, "student", key.StudentUsername, "error", err)
	}
}

func (e *SessionEngine) view(a attempt, now time.Time) domain.SessionView {
	v := domain.SessionView{
		QuizID:          a.quiz.ID,
		Topic:           a.quiz.Topic,
		Student:         a.key.StudentUsername,
		State:           a.state,
		DurationSeconds: a.quiz.DurationSeconds,
	}

	switch a.state {
	case domain.StateNotStarted:
		v.TimeLeftSeconds = a.quiz.DurationSeconds
	case domain.StateInProgress:
		started := a.active.StartTime
		v.StartedAt = &started
		v.TimeLeftSeconds = domain.WholeSeconds(domain.TimeLeft(now, started, a.quiz.Duration()))
		v.Questions = a.questions.Presented()
		v.Skipped = a.questions.Skipped
	case domain.StateSubmitted, domain.StateAlreadyCompleted:
		result := a.result
		v.Result = &result
	}
	return v
}
