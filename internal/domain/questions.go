package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionsPerQuestion is the number of options every scorable question carries.
const OptionsPerQuestion = 4

// Validate reports why q cannot be presented or scored, or nil if it can.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrMalformedQuestion)
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("%w: expected %d options, got %d", ErrMalformedQuestion, OptionsPerQuestion, len(q.Options))
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if _, dup := seen[opt]; dup {
			return fmt.Errorf("%w: duplicate option %q", ErrMalformedQuestion, opt)
		}
		seen[opt] = struct{}{}
	}
	if _, ok := seen[q.Answer]; !ok {
		return fmt.Errorf("%w: answer is not one of the options", ErrMalformedQuestion)
	}
	return nil
}

// PresentedQuestion is a question as shown to a student; the answer is never included.
type PresentedQuestion struct {
	Index   int      `json:"index"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// SkippedQuestion is a malformed question excluded from display and scoring.
type SkippedQuestion struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// QuestionSet is a quiz's questions split once into scorable and skipped entries.
// Indices always refer to positions in the original question list.
type QuestionSet struct {
	Total   int
	valid   []int
	all     []Question
	Skipped []SkippedQuestion
}

// PrepareQuestions validates every question exactly once.
func PrepareQuestions(questions []Question) QuestionSet {
	set := QuestionSet{Total: len(questions), all: questions}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			set.Skipped = append(set.Skipped, SkippedQuestion{Index: i, Reason: err.Error()})
			continue
		}
		set.valid = append(set.valid, i)
	}
	return set
}

// Presented returns the scorable questions without their answers.
func (s QuestionSet) Presented() []PresentedQuestion {
	out := make([]PresentedQuestion, 0, len(s.valid))
	for _, i := range s.valid {
		q := s.all[i]
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		out = append(out, PresentedQuestion{Index: i, Text: q.Text, Options: opts})
	}
	return out
}

// Score counts the scorable questions whose selected option equals the correct answer.
// Unanswered and skipped questions never count.
func (s QuestionSet) Score(answers Answers) int {
	score := 0
	for _, i := range s.valid {
		selected, ok := answers[strconv.Itoa(i)]
		if ok && selected == s.all[i].Answer {
			score++
		}
	}
	return score
}
