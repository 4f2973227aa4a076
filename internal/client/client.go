// Package client is the Go SDK for the It-Da HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Client calls the It-Da service as one owner.
type Client struct {
	http     *resty.Client
	owner    string
	admin    string
	language model.Language
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(3 * time.Minute),
		language: model.LangKorean,
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) Owner() string { return c.owner }

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().
		SetContext(ctx).
		SetHeader("Accept-Language", string(c.language))
	if c.owner != "" {
		r.SetHeader("X-Owner-ID", c.owner)
	}
	return r
}

// APIError is a non-2xx reply. Message is already localized by the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Kind)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

var kindSentinels = map[string]error{
	"input_invalid":           model.ErrInputInvalid,
	"not_found":               model.ErrNotFound,
	"name_collision":          model.ErrNameCollision,
	"concurrent_modification": model.ErrConcurrentModification,
	"embedding_unavailable":   model.ErrEmbeddingUnavailable,
	"retrieval_unavailable":   model.ErrRetrievalUnavailable,
	"generation_unavailable":  model.ErrGenerationUnavailable,
	"analysis_unavailable":    model.ErrAnalysisUnavailable,
	"analysis_malformed":      model.ErrAnalysisMalformed,
	"store_offline":           model.ErrStoreUnavailable,
	"store_permission":        model.ErrStoreUnavailable,
	"store_not_provisioned":   model.ErrStoreUnavailable,
	"forbidden":               ErrForbidden,
}

// ErrForbidden matches replies refused for a missing or wrong admin token.
var ErrForbidden = errors.New("forbidden")

// Is matches the model sentinel for the reported kind.
func (e *APIError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Warning is a degraded-success notice attached to a successful reply.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func decodeError(resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error == "" {
		return &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}
	return &APIError{Status: resp.StatusCode(), Kind: body.Kind, Message: body.Error}
}

// do sends r and decodes a JSON reply into out when status is one of ok.
func do(r *resty.Request, method, path string, out interface{}, ok ...int) error {
	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	for _, s := range ok {
		if resp.StatusCode() == s {
			if out == nil || len(resp.Body()) == 0 {
				return nil
			}
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}
	}
	return decodeError(resp)
}

func personPath(name string, suffix string) string {
	return "/api/persons/" + url.PathEscape(name) + suffix
}

// IsOffline reports transport failures where the server was never reached.
func IsOffline(err error) bool {
	var apiErr *APIError
	return err != nil && !errors.As(err, &apiErr)
}
