// Package assistant talks to the language-model service. The model is an
// untrusted oracle: it returns free text that downstream code re-validates;
// nothing here is allowed to become control flow on its own.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Oracle is the assistant service boundary. Propose sends one prompt and
// returns the model's free text; the session engine scripts a fake in tests.
type Oracle interface {
	Propose(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

// Client implements Oracle over the Anthropic Messages API.
type Client struct {
	api   anthropic.Client
	model string
}

// NewClient builds an Anthropic-backed oracle. The API key comes from the
// environment, never from config files.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("assistant: ANTHROPIC_API_KEY is not set")
	}
	if model == "" {
		return nil, errors.New("assistant: model is required")
	}
	return &Client{
		api:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}, nil
}

// Propose sends a single-turn message at temperature 0 and returns the
// trimmed text content. Command proposals must be deterministic; creativity
// here only produces commands we would have to repair anyway.
func (c *Client) Propose(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("assistant: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
