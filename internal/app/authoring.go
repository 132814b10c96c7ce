package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"quiz-conductor/internal/domain"
)

const (
	demoTopic         = "Demo"
	demoFailedTopic   = "Demo (AI Failed)"
	defaultDifficulty = domain.DifficultyMedium
	quizIDLength      = 6
	maxIDAttempts     = 5
)

var demoQuestions = []domain.Question{
	{Text: "What is the capital of India?", Options: []string{"Mumbai", "Kolkata", "Chennai", "New Delhi"}, Answer: "New Delhi"},
	{Text: "Closest planet to Sun?", Options: []string{"Earth", "Mars", "Mercury", "Venus"}, Answer: "Mercury"},
	{Text: "Python list bracket?", Options: []string{"{}", "()", "[]", "<>"}, Answer: "[]"},
}

// AuthoringConfig holds the knobs of quiz creation.
type AuthoringConfig struct {
	BaseURL      string
	MaxQuestions int
}

// AuthoringService creates quizzes for hosts. The generator is optional; without
// one every quiz is built from demo questions.
type AuthoringService struct {
	quizzes   QuizStore
	generator QuestionGenerator
	cfg       AuthoringConfig
	now       func() time.Time
	newID     func() string
}

func NewAuthoringService(quizzes QuizStore, generator QuestionGenerator, cfg AuthoringConfig) *AuthoringService {
	return NewAuthoringServiceWithIDs(quizzes, generator, cfg, func() string {
		return shortuuid.New()[:quizIDLength]
	})
}

// NewAuthoringServiceWithIDs is test-only for deterministic quiz ids.
func NewAuthoringServiceWithIDs(quizzes QuizStore, generator QuestionGenerator, cfg AuthoringConfig, newID func() string) *AuthoringService {
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = 20
	}
	return &AuthoringService{
		quizzes:   quizzes,
		generator: generator,
		cfg:       cfg,
		now:       time.Now,
		newID:     newID,
	}
}

func (s *AuthoringService) CreateQuiz(ctx context.Context, host string, req domain.CreateQuizRequest) (domain.CreatedQuiz, error) {
	difficulty, err := s.validate(req)
	if err != nil {
		return domain.CreatedQuiz{}, err
	}

	topic := strings.TrimSpace(req.Topic)
	questions, topic, fallback := s.questions(ctx, topic, difficulty, req.NumQuestions)

	quiz := domain.Quiz{
		Topic:           topic,
		DurationSeconds: req.DurationMinutes * 60,
		Questions:       questions,
		HostUsername:    host,
		CreatedAt:       s.now().UTC(),
	}
	for attempt := 1; ; attempt++ {
		quiz.ID = s.newID()
		err := s.quizzes.CreateQuiz(ctx, quiz)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateQuiz) || attempt >= maxIDAttempts {
			return domain.CreatedQuiz{}, fmt.Errorf("save quiz: %w", err)
		}
	}

	slog.Info("quiz created",
		"quiz_id", quiz.ID,
		"host", host,
		"topic", quiz.Topic,
		"questions", len(quiz.Questions),
		"fallback", fallback,
	)
	return domain.CreatedQuiz{
		Quiz:      quiz,
		ShareLink: ShareLink(s.cfg.BaseURL, quiz.ID),
		Fallback:  fallback,
	}, nil
}

func (s *AuthoringService) ListQuizzes(ctx context.Context, host string) ([]domain.QuizSummary, error) {
	return s.quizzes.ListByHost(ctx, host)
}

func (s *AuthoringService) validate(req domain.CreateQuizRequest) (string, error) {
	difficulty := defaultDifficulty
	switch strings.ToLower(strings.TrimSpace(req.Difficulty)) {
	case "":
	case "easy":
		difficulty = domain.DifficultyEasy
	case "medium":
		difficulty = domain.DifficultyMedium
	case "hard":
		difficulty = domain.DifficultyHard
	default:
		return "", fmt.Errorf("%w: difficulty must be Easy, Medium or Hard", domain.ErrValidation)
	}
	if req.NumQuestions < 1 || req.NumQuestions > s.cfg.MaxQuestions {
		return "", fmt.Errorf("%w: number of questions must be between 1 and %d", domain.ErrValidation, s.cfg.MaxQuestions)
	}
	if req.DurationMinutes < 1 {
		return "", fmt.Errorf("%w: duration must be at least one minute", domain.ErrValidation)
	}
	return difficulty, nil
}

// questions returns the quiz content and its final topic, falling back to demo
// questions when no topic or generator is available or generation fails.
func (s *AuthoringService) questions(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, string, bool) {
	if topic == "" || s.generator == nil {
		return fallbackQuestions(count), demoTopic, true
	}

	generated, err := s.generator.Generate(ctx, domain.GenerateRequest{
		Topic:      topic,
		Difficulty: difficulty,
		Count:      count,
	})
	if err != nil || len(generated) == 0 {
		slog.Warn("question generation failed, using demo questions", "topic", topic, "error", err)
		return fallbackQuestions(count), demoFailedTopic, true
	}
	if len(generated) > count {
		generated = generated[:count]
	}
	return generated, topic, false
}

// fallbackQuestions cycles through the demo set until count questions are collected.
func fallbackQuestions(count int) []domain.Question {
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		q := demoQuestions[i%len(demoQuestions)]
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts
		out = append(out, q)
	}
	return out
}

// ShareLink is the URL students open to take a quiz.
func ShareLink(baseURL, quizID string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "/"
	}
	return base + "?quiz_id=" + quizID
}
