// Package openai implements generation.Generator with OpenAI Chat Completions.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI generation adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

type Generator struct {
	client *openai.Client
	opts   Options
}

// New creates a generator with its own client. SDK retries are disabled.
func New(reqOpts []option.RequestOption, optFns ...func(o *Options)) *Generator {
	client := openai.NewClient(append(reqOpts[:len(reqOpts):len(reqOpts)], option.WithMaxRetries(0))...)
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a generator from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

func (g *Generator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userMessage))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai chat completion: empty content")
	}
	return text, nil
}
