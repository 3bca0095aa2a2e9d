package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/ledgerline/internal/domain"
)

// DefaultModelName is the Gemini model used for fallback categorization.
const DefaultModelName = "gemini-2.5-flash"

// Generator produces a short text completion. It exists so the model call can
// be mocked in tests.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Service wraps the keyword categorizer with an optional model-backed
// fallback for merchants the keyword pass cannot place. With a nil generator
// the service is a pure, synchronous keyword lookup.
type Service struct {
	rules *Categorizer
	gen   Generator
	log   zerolog.Logger
}

// NewService creates the categorization service. gen may be nil to disable
// the model fallback.
func NewService(rules *Categorizer, gen Generator, log zerolog.Logger) *Service {
	return &Service{rules: rules, gen: gen, log: log}
}

// Categorize runs the keyword rules first. When they yield Others and a
// generator is configured, the model is asked to pick from the closed
// vocabulary; any error or out-of-vocabulary answer degrades back to Others.
func (s *Service) Categorize(ctx context.Context, merchant string) domain.Category {
	category := s.rules.Categorize(merchant)
	if category != domain.CategoryOthers || s.gen == nil {
		return category
	}

	answer, err := s.gen.GenerateText(ctx, categoryPrompt(merchant))
	if err != nil {
		s.log.Warn().Err(err).Str("merchant", merchant).Msg("Model categorization failed, keeping Others")
		return domain.CategoryOthers
	}

	answer = strings.TrimSpace(answer)
	for _, c := range domain.Categories() {
		if strings.EqualFold(answer, string(c)) {
			return c
		}
	}

	s.log.Warn().Str("merchant", merchant).Str("answer", answer).Msg("Model returned unknown category, keeping Others")
	return domain.CategoryOthers
}

func categoryPrompt(merchant string) string {
	labels := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		labels = append(labels, string(c))
	}

	return "You classify merchant names from Indian bank card transactions.\n\n" +
		"Pick EXACTLY ONE label from this list:\n" +
		strings.Join(labels, ", ") + "\n\n" +
		"Answer with the label only. No punctuation, no explanation.\n" +
		"If unsure, answer Others.\n\n" +
		"Merchant: " + merchant + "\n"
}

// GeminiGenerator implements Generator using the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini-backed generator. The client picks up
// credentials from the environment.
func NewGeminiGenerator(ctx context.Context, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiGenerator: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// GenerateText sends the prompt and returns the raw model text.
func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}
