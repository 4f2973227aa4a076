// Package ollama calls the Ollama embeddings API.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Provider struct {
	client *resty.Client
	model  string
}

// New creates a provider for model at baseURL. A bare host:port gets http://.
func New(baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &Provider{client: c, model: model}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed generates a dense vector for text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&embedRequest{Model: p.model, Prompt: text}).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings status %d: %s", resp.StatusCode(), resp.String())
	}

	var er embedResponse
	if err := json.Unmarshal(resp.Body(), &er); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if er.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", er.Error)
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}

	vec := make([]float32, len(er.Embedding))
	for i, v := range er.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing checks /api/tags for the configured model.
func (p *Provider) HealthPing(ctx context.Context) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

// Pull asks Ollama to download the model. Used by the CLI before first use.
func (p *Provider) Pull(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"name": p.model, "stream": false}).
		Post("/api/pull")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ollama pull status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
