package client

import (
	"context"
	"net/http"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// CounselReply is an answer. Messages is the recorded exchange when saved.
type CounselReply struct {
	Reply    string                 `json:"reply"`
	Messages []model.CounselMessage `json:"messages,omitempty"`
	Warning  *Warning               `json:"warning,omitempty"`
}

// AskCounsel asks about name; the server loads the person's history.
func (c *Client) AskCounsel(ctx context.Context, name, question string) (*CounselReply, error) {
	body := map[string]string{"question": question, "language": string(c.language)}
	var out CounselReply
	if err := do(c.request(ctx).SetBody(body), http.MethodPost, personPath(name, "/counsel"), &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CounselMessages(ctx context.Context, name string) ([]model.CounselMessage, error) {
	var out struct {
		Messages []model.CounselMessage `json:"messages"`
	}
	if err := do(c.request(ctx), http.MethodGet, personPath(name, "/counsel"), &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Chat calls POST /api/chat with an optional conversation context.
func (c *Client) Chat(ctx context.Context, message, conversationContext string) (*CounselReply, error) {
	body := map[string]string{"message": message, "language": string(c.language)}
	if conversationContext != "" {
		body["conversationContext"] = conversationContext
	}
	var out CounselReply
	if err := do(c.request(ctx).SetBody(body), http.MethodPost, "/api/chat", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Passage is a knowledge passage to ingest.
type Passage struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// IngestKnowledge uploads passages and returns their index IDs.
func (c *Client) IngestKnowledge(ctx context.Context, passages []Passage) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	body := map[string]interface{}{"passages": passages}
	r := c.request(ctx).SetBody(body)
	if c.admin != "" {
		r.SetAuthToken(c.admin)
	}
	if err := do(r, http.MethodPost, "/api/knowledge", &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// Health returns the service health body.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := do(c.request(ctx), http.MethodGet, "/api/health", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}
