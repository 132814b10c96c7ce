package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-conductor/internal/app"
	"quiz-conductor/internal/domain"
	"quiz-conductor/internal/infra/memory"
)

var t0 = time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func oneQuestionQuiz() domain.Quiz {
	return domain.Quiz{
		ID:              "q1",
		Topic:           "Letters",
		DurationSeconds: 60,
		HostUsername:    "prof",
		Questions: []domain.Question{
			{Text: "Pick B", Options: []string{"A", "B", "C", "D"}, Answer: "B"},
		},
	}
}

type engineFixture struct {
	engine  *app.SessionEngine
	tracker *faultyTracker
	results *faultyResults
	clock   *clock
}

func newEngineFixture(quizzes ...domain.Quiz) *engineFixture {
	clk := &clock{now: t0}
	tracker := &faultyTracker{SessionTracker: memory.NewSessionTracker()}
	results := &faultyResults{ResultStore: memory.NewResultStore()}
	repo := memory.NewQuizRepository(memory.NewQuizStore(quizzes...), time.Minute)
	return &engineFixture{
		engine:  app.NewSessionEngineWithClock(repo, tracker, results, clk.Now),
		tracker: tracker,
		results: results,
		clock:   clk,
	}
}

var key = domain.SessionKey{QuizID: "q1", StudentUsername: "s1"}

func TestSubmitBeforeTimeout(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())

	view, err := f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotStarted, view.State)
	assert.Equal(t, 60, view.TimeLeftSeconds)
	assert.Empty(t, view.Questions)

	view, err = f.engine.Start(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, view.State)
	require.Len(t, view.Questions, 1)

	f.clock.Advance(10 * time.Second)
	answers := domain.Answers{"0": "B"}
	view, err = f.engine.Observe(ctx, key, answers)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, view.State)
	assert.Equal(t, 50, view.TimeLeftSeconds)

	view, err = f.engine.Submit(ctx, key, answers)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)
	assert.False(t, view.AutoSubmitted)
	require.NotNil(t, view.Result)
	assert.Equal(t, 1, view.Result.Score)
	assert.Equal(t, 1, view.Result.TotalQuestions)
	assert.Equal(t, t0.Add(10*time.Second), view.Result.SubmittedAt)

	_, active, err := f.tracker.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, active, "active session must be removed after submit")

	f.clock.Advance(time.Hour)
	view, err = f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAlreadyCompleted, view.State)
	assert.Equal(t, 1, view.Result.Score)
	assert.Empty(t, view.Questions, "a completed attempt never shows questions again")
}

func TestTimeoutSubmitsCurrentAnswers(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())

	_, err := f.engine.Start(ctx, key)
	require.NoError(t, err)

	f.clock.Advance(61 * time.Second)
	view, err := f.engine.Observe(ctx, key, domain.Answers{"0": "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)
	assert.True(t, view.AutoSubmitted)
	require.NotNil(t, view.Result)
	assert.Equal(t, 0, view.Result.Score)
	assert.Equal(t, 1, view.Result.TotalQuestions)

	_, active, _ := f.tracker.Get(ctx, key)
	assert.False(t, active)

	results, _ := f.results.ListByQuiz(ctx, "q1")
	assert.Len(t, results, 1)
}

func TestTimeoutAtExactDeadline(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	_, _ = f.engine.Start(ctx, key)

	f.clock.Advance(59*time.Second + 500*time.Millisecond)
	view, err := f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, view.State)
	assert.Equal(t, 1, view.TimeLeftSeconds)

	f.clock.Advance(500 * time.Millisecond)
	view, err = f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)
}

func TestSubmitBeforeStartIsRejected(t *testing.T) {
	f := newEngineFixture(oneQuestionQuiz())

	_, err := f.engine.Submit(context.Background(), key, domain.Answers{"0": "B"})
	assert.ErrorIs(t, err, domain.ErrSessionNotStarted)

	results, _ := f.results.ListByQuiz(context.Background(), "q1")
	assert.Empty(t, results)
}

func TestStartTwiceKeepsOriginalStartTime(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())

	first, err := f.engine.Start(ctx, key)
	require.NoError(t, err)

	f.clock.Advance(20 * time.Second)
	second, err := f.engine.Start(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, second.StartedAt)
	assert.Equal(t, *first.StartedAt, *second.StartedAt)
	assert.Equal(t, 40, second.TimeLeftSeconds)
}

func TestStartAfterCompletionIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	_, _ = f.engine.Start(ctx, key)
	_, err := f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
	require.NoError(t, err)

	view, err := f.engine.Start(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAlreadyCompleted, view.State)
	_, active, _ := f.tracker.Get(ctx, key)
	assert.False(t, active)

	view, err = f.engine.Submit(ctx, key, domain.Answers{"0": "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateAlreadyCompleted, view.State)
	assert.Equal(t, 1, view.Result.Score, "a second submit must not overwrite the stored score")
}

func TestStartFailureLeavesNotStarted(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	f.tracker.upsertErr = errors.New("connection refused")

	_, err := f.engine.Start(ctx, key)
	require.Error(t, err)

	f.tracker.upsertErr = nil
	view, err := f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotStarted, view.State)
}

func TestInsertFailureKeepsSessionForRetry(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	_, _ = f.engine.Start(ctx, key)

	f.results.insertErr = errors.New("disk full")
	_, err := f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
	require.Error(t, err)

	_, active, _ := f.tracker.Get(ctx, key)
	assert.True(t, active, "active session must survive a failed insert")

	f.results.insertErr = nil
	view, err := f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)
	assert.Equal(t, 1, view.Result.Score)
}

func TestDeleteFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	_, _ = f.engine.Start(ctx, key)

	f.tracker.deleteErr = errors.New("timeout")
	view, err := f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)

	_, active, _ := f.tracker.Get(ctx, key)
	assert.True(t, active)

	f.tracker.deleteErr = nil
	view, err = f.engine.Observe(ctx, key, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAlreadyCompleted, view.State)

	_, active, _ = f.tracker.Get(ctx, key)
	assert.False(t, active, "leftover session is removed once the result is seen")
}

func TestConcurrentSubmitsRecordOneResult(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(oneQuestionQuiz())
	_, _ = f.engine.Start(ctx, key)
	f.clock.Advance(61 * time.Second)

	const callers = 16
	var wg sync.WaitGroup
	views := make([]domain.SessionView, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				views[i], errs[i] = f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
			} else {
				views[i], errs[i] = f.engine.Observe(ctx, key, domain.Answers{"0": "B"})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, views[i].State.Terminal(), "caller %d got %s", i, views[i].State)
		require.NotNil(t, views[i].Result)
		assert.Equal(t, 1, views[i].Result.Score)
	}
	results, _ := f.results.ListByQuiz(ctx, "q1")
	assert.Len(t, results, 1)
}

func TestSubmitLosingCrossProcessRaceReturnsStoredResult(t *testing.T) {
	ctx := context.Background()
	tracker := memory.NewSessionTracker()
	results := memory.NewResultStore()
	repo := memory.NewQuizRepository(memory.NewQuizStore(oneQuestionQuiz()), time.Minute)
	now := func() time.Time { return t0.Add(5 * time.Second) }

	first := app.NewSessionEngineWithClock(repo, tracker, results, now)
	_, err := first.Start(ctx, key)
	require.NoError(t, err)

	// The other instance submits right after this one has loaded the session.
	racing := &racingTracker{SessionTracker: tracker, afterGet: func() {
		view, err := first.Submit(ctx, key, domain.Answers{"0": "B"})
		require.NoError(t, err)
		require.Equal(t, domain.StateSubmitted, view.State)
	}}
	second := app.NewSessionEngineWithClock(repo, racing, results, now)

	view, err := second.Submit(ctx, key, domain.Answers{"0": "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateAlreadyCompleted, view.State)
	require.NotNil(t, view.Result)
	assert.Equal(t, 1, view.Result.Score)
	assert.Empty(t, view.Questions)

	stored, err := results.ListByQuiz(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].Score)
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	f := newEngineFixture(oneQuestionQuiz())
	_, err := f.engine.Start(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	view, err := f.engine.Submit(ctx, key, domain.Answers{"0": "B"})
	require.NoError(t, err)
	assert.Equal(t, domain.StateSubmitted, view.State)

	stored, _ := f.results.ListByQuiz(context.Background(), "q1")
	assert.Len(t, stored, 1)
}

func TestMalformedQuestionsAreSkippedButCounted(t *testing.T) {
	ctx := context.Background()
	quiz := oneQuestionQuiz()
	quiz.Questions = append(quiz.Questions,
		domain.Question{Text: "Broken", Options: []string{"x", "y"}, Answer: "x"},
		domain.Question{Text: "Pick D", Options: []string{"A", "B", "C", "D"}, Answer: "D"},
	)
	f := newEngineFixture(quiz)

	view, err := f.engine.Start(ctx, key)
	require.NoError(t, err)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, 0, view.Questions[0].Index)
	assert.Equal(t, 2, view.Questions[1].Index)
	require.Len(t, view.Skipped, 1)
	assert.Equal(t, 1, view.Skipped[0].Index)

	view, err = f.engine.Submit(ctx, key, domain.Answers{"0": "B", "1": "x", "2": "D"})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Result.Score)
	assert.Equal(t, 3, view.Result.TotalQuestions)
}

func TestUnknownQuiz(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.Observe(context.Background(), key, nil)
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestEmptyKeyIsRejected(t *testing.T) {
	f := newEngineFixture(oneQuestionQuiz())
	_, err := f.engine.Start(context.Background(), domain.SessionKey{QuizID: "q1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type faultyTracker struct {
	app.SessionTracker
	mu        sync.Mutex
	upsertErr error
	deleteErr error
}

func (t *faultyTracker) Upsert(ctx context.Context, s domain.ActiveSession) error {
	t.mu.Lock()
	err := t.upsertErr
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return t.SessionTracker.Upsert(ctx, s)
}

func (t *faultyTracker) Delete(ctx context.Context, key domain.SessionKey) error {
	t.mu.Lock()
	err := t.deleteErr
	t.mu.Unlock()
	if err != nil {
		return err
	}
	return t.SessionTracker.Delete(ctx, key)
}

type faultyResults struct {
	app.ResultStore
	insertErr error
	inserts   atomic.Int32
}

func (r *faultyResults) Insert(ctx context.Context, result domain.Result) error {
	r.inserts.Add(1)
	if r.insertErr != nil {
		return r.insertErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.ResultStore.Insert(ctx, result)
}

// racingTracker runs afterGet once, right after the first successful Get.
type racingTracker struct {
	app.SessionTracker
	once     sync.Once
	afterGet func()
}

func (t *racingTracker) Get(ctx context.Context, key domain.SessionKey) (domain.ActiveSession, bool, error) {
	s, ok, err := t.SessionTracker.Get(ctx, key)
	if err == nil {
		t.once.Do(t.afterGet)
	}
	return s, ok, err
}
