package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"quiz-conductor/internal/domain"
)

const DefaultModel = "gemini-1.5-flash"

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("model returned no content")

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Generator asks a Gemini model for multiple-choice questions.
type Generator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(cfg.Temperature)
	model.ResponseMIMEType = "application/json"
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	return &Generator{client: client, model: model}, nil
}

func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.Question, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(Prompt(req)))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	questions, err := ParseQuestions(sb.String())
	if err != nil {
		return nil, err
	}
	slog.Info("questions generated", "topic", req.Topic, "difficulty", req.Difficulty, "count", len(questions))
	return questions, nil
}

func (g *Generator) Close() error {
	return g.client.Close()
}

// Prompt renders the instruction sent to the model.
func Prompt(req domain.GenerateRequest) string {
	return fmt.Sprintf(
		"Generate a multiple-choice quiz about %q (difficulty: %s) with exactly %d questions. "+
			"Output ONLY a valid JSON list (RFC 8259) of objects. "+
			"Each object must have keys: \"question\", \"options\" (list of 4 strings), \"answer\".",
		req.Topic, req.Difficulty, req.Count,
	)
}
