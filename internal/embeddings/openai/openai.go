// Package openai embeds text with the OpenAI embeddings endpoint, requesting
// a fixed output dimension.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI embedding adapter.
type Options struct {
	Model      string
	Dimensions int64
}

type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates a provider with its own client. Extra request options (API key,
// base URL) are passed to the SDK. SDK retries are disabled: a failed embedding
// is reported on the first attempt.
func New(reqOpts []option.RequestOption, optFns ...func(o *Options)) *Provider {
	client := openai.NewClient(append(reqOpts[:len(reqOpts):len(reqOpts)], option.WithMaxRetries(0))...)
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:      string(openai.EmbeddingModelTextEmbedding3Small),
		Dimensions: 768,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:          openai.EmbeddingModel(p.opts.Model),
		Dimensions:     openai.Int(p.opts.Dimensions),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}
