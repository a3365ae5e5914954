// Package gemini answers title-analysis prompts with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"phish_backend/internal/feature/titleanalysis/usecase"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

var (
	// ErrBlocked is returned when the prompt or the answer was withheld by safety filters.
	ErrBlocked = errors.New("gemini withheld the answer")
	// ErrEmptyAnswer is returned when no candidate carries text.
	ErrEmptyAnswer = errors.New("gemini returned no text")
)

// GeminiAnalyzer implements usecase.Analyzer.
type GeminiAnalyzer struct {
	models generator
	model  string
	config *genai.GenerateContentConfig
}

// generator is the part of genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ usecase.Analyzer = (*GeminiAnalyzer)(nil)

// NewGeminiAnalyzer creates a client from the environment: GEMINI_API_KEY,
// or GOOGLE_GENAI_USE_VERTEXAI with GOOGLE_CLOUD_PROJECT and GOOGLE_CLOUD_LOCATION.
func NewGeminiAnalyzer(ctx context.Context, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return newAnalyzer(client.Models, model), nil
}

func newAnalyzer(models generator, model string) *GeminiAnalyzer {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiAnalyzer{
		models: models,
		model:  model,
		config: &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
	}
}

// Analyze sends prompt and returns the answer text.
func (g *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}
	return answerText(resp)
}

// answerText joins the text parts of the first candidate, skipping thoughts.
func answerText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyAnswer
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", ErrEmptyAnswer
	}
	c := resp.Candidates[0]
	if c.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: answer stopped for safety", ErrBlocked)
	}
	if c.Content == nil {
		return "", ErrEmptyAnswer
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}
