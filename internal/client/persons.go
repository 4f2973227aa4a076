package client

import (
	"context"
	"net/http"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// SubmitRequest is the body of a transcript submission.
type SubmitRequest struct {
	Transcript  string                 `json:"transcript"`
	Mode        model.RelationshipMode `json:"mode,omitempty"`
	IsNewPerson bool                   `json:"isNewPerson"`
	Language    model.Language         `json:"language,omitempty"`
}

// SubmitResponse is the analyzed record. Warning is set when it was not saved.
type SubmitResponse struct {
	Person         *model.Person        `json:"person"`
	StoredAnalysis model.StoredAnalysis `json:"storedAnalysis"`
	Warning        *Warning             `json:"warning,omitempty"`
}

// SubmitTranscript adds a transcript for name and returns the new analysis.
func (c *Client) SubmitTranscript(ctx context.Context, name string, req SubmitRequest) (*SubmitResponse, error) {
	var out SubmitResponse
	if err := do(c.request(ctx).SetBody(req), http.MethodPost, personPath(name, "/transcripts"), &out, http.StatusCreated, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAnalyses returns the owner's stored analyses, newest first.
func (c *Client) ListAnalyses(ctx context.Context) ([]model.StoredAnalysis, error) {
	var out struct {
		Analyses []model.StoredAnalysis `json:"analyses"`
	}
	if err := do(c.request(ctx), http.MethodGet, "/api/persons", &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Analyses, nil
}

func (c *Client) GetPerson(ctx context.Context, name string) (*model.Person, error) {
	var p model.Person
	if err := do(c.request(ctx), http.MethodGet, personPath(name, ""), &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePerson removes the person with its counsel messages.
func (c *Client) DeletePerson(ctx context.Context, name string) error {
	return do(c.request(ctx), http.MethodDelete, personPath(name, ""), nil, http.StatusNoContent)
}
