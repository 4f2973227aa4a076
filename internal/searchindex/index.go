package searchindex

import (
	"context"

	"github.com/parksyoung/It-Da-sub000/internal/model"
)

// Document is a knowledge passage with its embedding, ready for upsert.
type Document struct {
	ID     string
	Text   string
	Source string
	Vector []float32
}

// Index is the knowledge-base vector index used for counsel retrieval.
type Index interface {
	// Query returns at most topK passages ranked by similarity. Passages whose
	// metadata lacks text are returned with an empty Text.
	Query(ctx context.Context, vec []float32, topK int) ([]model.Passage, error)
	// Upsert inserts or replaces documents by ID.
	Upsert(ctx context.Context, docs []Document) error
}
