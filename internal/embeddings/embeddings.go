package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/health"
)

// EmbeddingProvider produces vector representations for text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CheckDimension rejects vectors whose length differs from want.
func CheckDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("embedding has %d dimensions, want %d", len(vec), want)
	}
	return nil
}

// NewHealthChecker monitors p through HealthPing when available, otherwise by
// embedding a short probe string.
func NewHealthChecker(p EmbeddingProvider, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	var pinger health.HealthPinger
	if hp, ok := p.(health.HealthPinger); ok {
		pinger = hp
	} else {
		pinger = health.PingerFunc(func(ctx context.Context) error {
			vec, err := p.Embed(ctx, "health")
			if err != nil {
				return err
			}
			if len(vec) == 0 {
				return fmt.Errorf("empty embedding")
			}
			return nil
		})
	}
	return health.NewPingChecker("embedder", pinger, log, probeTimeout)
}
