package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"quiz-conductor/internal/domain"
)

// ParseQuestions decodes a JSON list of questions, tolerating markdown code
// fences around it. Individual questions are not validated here.
func ParseQuestions(text string) ([]domain.Question, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var questions []domain.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrEmptyResponse
	}
	return questions, nil
}
