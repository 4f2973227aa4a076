package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
)

func TestIngest(t *testing.T) {
	emb, idx := &fakeEmbedder{}, &fakeIndex{}
	svc := NewKnowledgeService(emb, idx, 3, zerolog.Nop())

	ids, err := svc.Ingest(context.Background(), []KnowledgePassage{
		{Text: "Reply within a day.", Source: "guide"},
		{Text: "Ask open questions.", Source: "guide"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Len(t, idx.upserted, 2)
	assert.Equal(t, searchindex.DocumentID("guide", "Reply within a day."), ids[0])
	assert.Equal(t, "Ask open questions.", idx.upserted[1].Text)
	assert.Len(t, idx.upserted[0].Vector, 3)
}

func TestIngest_Errors(t *testing.T) {
	ctx := context.Background()

	svc := NewKnowledgeService(&fakeEmbedder{}, &fakeIndex{}, 3, zerolog.Nop())
	_, err := svc.Ingest(ctx, nil)
	require.ErrorIs(t, err, model.ErrInputInvalid)
	_, err = svc.Ingest(ctx, []KnowledgePassage{{Text: " "}})
	require.ErrorIs(t, err, model.ErrInputInvalid)

	svc = NewKnowledgeService(&fakeEmbedder{}, &fakeIndex{}, 768, zerolog.Nop())
	_, err = svc.Ingest(ctx, []KnowledgePassage{{Text: "x"}})
	require.ErrorIs(t, err, model.ErrEmbeddingUnavailable)

	svc = NewKnowledgeService(&fakeEmbedder{}, &fakeIndex{err: errors.New("down")}, 0, zerolog.Nop())
	_, err = svc.Ingest(ctx, []KnowledgePassage{{Text: "x"}})
	require.ErrorIs(t, err, model.ErrRetrievalUnavailable)
}
