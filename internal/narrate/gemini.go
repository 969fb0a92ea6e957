package narrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiNarrator narrates with a Gemini generative model.
type GeminiNarrator struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiNarrator dials Gemini with apiKey.
//
// Precondition: apiKey and model must be non-empty; maxTokens >= 1.
// Postcondition: The caller must Close the returned narrator.
func NewGeminiNarrator(ctx context.Context, apiKey, model string, maxTokens int, timeout time.Duration) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini narrator: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("gemini narrator: model must not be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetMaxOutputTokens(int32(maxTokens))
	return &GeminiNarrator{client: client, model: m, timeout: timeout}, nil
}

// Narrate sends the rendered prompt for ev and returns the first text part.
func (n *GeminiNarrator) Narrate(ctx context.Context, ev Event) (string, error) {
	prompt, err := Prompt(ev)
	if err != nil {
		return "", err
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	resp, err := n.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini generate: no content returned")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errors.New("gemini generate: unexpected response part type")
	}
	return string(text), nil
}

// Close releases the underlying client.
func (n *GeminiNarrator) Close() error {
	return n.client.Close()
}
