package domain

import (
	"math"
	"time"
)

// SessionState is the lifecycle state of one student's attempt.
type SessionState string

const (
	StateNotStarted       SessionState = "not_started"
	StateInProgress       SessionState = "in_progress"
	StateSubmitted        SessionState = "submitted"
	StateAlreadyCompleted SessionState = "already_completed"
)

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == StateSubmitted || s == StateAlreadyCompleted
}

// TimeLeft is the remaining time of an attempt started at start, floored at zero
// and never above the full duration.
func TimeLeft(now, start time.Time, duration time.Duration) time.Duration {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	left := duration - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// WholeSeconds rounds d up so a countdown shows zero only once time is really up.
func WholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// SessionView is what a student sees after any interaction with the engine.
type SessionView struct {
	QuizID          string              `json:"quizId"`
	Topic           string              `json:"topic"`
	Student         string              `json:"student"`
	State           SessionState        `json:"state"`
	DurationSeconds int                 `json:"durationInSeconds"`
	StartedAt       *time.Time          `json:"startedAt,omitempty"`
	TimeLeftSeconds int                 `json:"timeLeftSeconds"`
	Questions       []PresentedQuestion `json:"questions,omitempty"`
	Skipped         []SkippedQuestion   `json:"skipped,omitempty"`
	Result          *Result             `json:"result,omitempty"`
	AutoSubmitted   bool                `json:"autoSubmitted,omitempty"`
}

// ActiveStudent is a host-facing entry for a student who has started but not submitted.
type ActiveStudent struct {
	StudentUsername string    `json:"studentUsername"`
	StartedAt       time.Time `json:"startedAt"`
	TimeLeftSeconds int       `json:"timeLeftSeconds"`
	// Overdue means the time ran out and the student never came back to submit.
	Overdue bool `json:"overdue"`
}

// Progress is the Host Monitor's read model for one quiz.
type Progress struct {
	QuizID      string          `json:"quizId"`
	Topic       string          `json:"topic"`
	ActiveNow   []ActiveStudent `json:"activeNow"`
	Completed   []Result        `json:"completed"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
