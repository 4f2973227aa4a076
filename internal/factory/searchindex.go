package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/config"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
)

// NewSearchIndex creates the knowledge index.
// Launches async schema bootstrap with short timeout; returns index immediately for fast startup.
func NewSearchIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (searchindex.Index, error) {
	if cfg.WeaviateURL == "" {
		return nil, fmt.Errorf("weaviate URL not configured - required for counsel retrieval")
	}

	idx, err := searchindex.NewWeaviateIndex(cfg.WeaviateURL, cfg.KnowledgeClass)
	if err != nil {
		return nil, err
	}

	go func() {
		bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
		defer cancel()

		if err := searchindex.BootstrapWeaviate(bootstrapCtx, cfg.WeaviateURL, cfg.KnowledgeClass); err != nil {
			log.Warn().Err(err).Str("url", cfg.WeaviateURL).Msg("search index bootstrap failed")
		} else {
			log.Debug().Str("url", cfg.WeaviateURL).Str("class", cfg.KnowledgeClass).Msg("search index bootstrap completed")
		}
	}()

	return idx, nil
}
