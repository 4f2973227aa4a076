// Package anthropic implements generation.Generator with the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Options configure the Anthropic generation adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
}

type Generator struct {
	client *anthropic.Client
	opts   Options
}

// New creates a generator with its own client. SDK retries are disabled.
func New(reqOpts []option.RequestOption, optFns ...func(o *Options)) *Generator {
	client := anthropic.NewClient(append(reqOpts[:len(reqOpts):len(reqOpts)], option.WithMaxRetries(0))...)
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a generator from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

func (g *Generator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage))},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("anthropic api error: empty response")
	}
	return text, nil
}
