package factory

import (
	"context"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/config"
	emb "github.com/parksyoung/It-Da-sub000/internal/embeddings"
	"github.com/parksyoung/It-Da-sub000/internal/embeddings/ollama"
	embopenai "github.com/parksyoung/It-Da-sub000/internal/embeddings/openai"
)

const ollamaDefaultModel = "nomic-embed-text"

// NewEmbeddingProvider creates an embedding provider based on config.
// Launches optional async warmup; returns provider immediately for fast startup.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) emb.EmbeddingProvider {
	var provider emb.EmbeddingProvider

	switch cfg.EmbedProvider {
	case "openai":
		provider = embopenai.New(openAIOptions(cfg), func(o *embopenai.Options) {
			// the config default names an Ollama model
			if cfg.EmbedModel != "" && cfg.EmbedModel != ollamaDefaultModel {
				o.Model = cfg.EmbedModel
			}
			o.Dimensions = int64(cfg.EmbedDimension)
		})
	case "", "ollama":
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	default:
		log.Warn().Str("provider", cfg.EmbedProvider).Msg("unknown embedding provider; using ollama")
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	}

	// Optional async warmup with configurable timeout; don't block startup
	go func() {
		warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()

		vec, err := provider.Embed(warmupCtx, "factory-warmup-check")
		if err == nil {
			err = emb.CheckDimension(vec, cfg.EmbedDimension)
		}
		if err != nil {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()

	return provider
}

func openAIOptions(cfg *config.Config) []option.RequestOption {
	var opts []option.RequestOption
	if cfg.OpenAIAPIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.OpenAIAPIKey))
	}
	return opts
}
