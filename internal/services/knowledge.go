package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/embeddings"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
)

// KnowledgePassage is one reference passage to ingest.
type KnowledgePassage struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// KnowledgeService loads reference passages into the counsel index.
type KnowledgeService struct {
	emb       embeddings.EmbeddingProvider
	idx       searchindex.Index
	dimension int
	log       zerolog.Logger
}

func NewKnowledgeService(emb embeddings.EmbeddingProvider, idx searchindex.Index, dimension int, log zerolog.Logger) *KnowledgeService {
	return &KnowledgeService{emb: emb, idx: idx, dimension: dimension, log: log}
}

// Ingest embeds every passage and upserts them in one batch. IDs are derived
// from content so re-ingesting a passage replaces it.
func (s *KnowledgeService) Ingest(ctx context.Context, passages []KnowledgePassage) ([]string, error) {
	if len(passages) == 0 {
		return nil, model.NewValidationError("passages", "must not be empty")
	}
	for i, p := range passages {
		if strings.TrimSpace(p.Text) == "" {
			return nil, model.NewValidationError(fmt.Sprintf("passages[%d].text", i), "must not be empty")
		}
	}

	docs := make([]searchindex.Document, 0, len(passages))
	ids := make([]string, 0, len(passages))
	for _, p := range passages {
		vec, err := s.emb.Embed(ctx, p.Text)
		if err == nil && s.dimension > 0 {
			err = embeddings.CheckDimension(vec, s.dimension)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingUnavailable, err)
		}
		id := searchindex.DocumentID(p.Source, p.Text)
		docs = append(docs, searchindex.Document{ID: id, Text: p.Text, Source: p.Source, Vector: vec})
		ids = append(ids, id)
	}

	if err := s.idx.Upsert(ctx, docs); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRetrievalUnavailable, err)
	}
	s.log.Info().Int("passages", len(docs)).Msg("knowledge ingested")
	return ids, nil
}
