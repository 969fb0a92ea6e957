package narrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicNarrator narrates with the Anthropic Messages API.
type AnthropicNarrator struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAnthropicNarrator creates an AnthropicNarrator. Extra request options
// (base URL, retries) are passed through to the client.
//
// Precondition: apiKey and model must be non-empty; maxTokens >= 1.
func NewAnthropicNarrator(apiKey, model string, maxTokens int, timeout time.Duration, opts ...anthropicopt.RequestOption) (*AnthropicNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic narrator: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("anthropic narrator: model must not be empty")
	}
	opts = append([]anthropicopt.RequestOption{anthropicopt.WithAPIKey(apiKey)}, opts...)
	return &AnthropicNarrator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}, nil
}

// Narrate sends the rendered prompt for ev and joins the text blocks of the reply.
func (n *AnthropicNarrator) Narrate(ctx context.Context, ev Event) (string, error) {
	prompt, err := Prompt(ev)
	if err != nil {
		return "", err
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	msg, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(n.model),
		MaxTokens: int64(n.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("anthropic messages: no text in response")
	}
	return sb.String(), nil
}
