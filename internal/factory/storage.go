package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/config"
	storepkg "github.com/parksyoung/It-Da-sub000/internal/store"
	storefs "github.com/parksyoung/It-Da-sub000/internal/store/firestore"
	"github.com/parksyoung/It-Da-sub000/internal/store/memstore"
	storepg "github.com/parksyoung/It-Da-sub000/internal/store/postgres"
	storeredis "github.com/parksyoung/It-Da-sub000/internal/store/redis"
	storesqlite "github.com/parksyoung/It-Da-sub000/internal/store/sqlite"
)

// NewStore returns the history store selected by cfg.DBDriver.
// Postgres launches an async bootstrap check and returns immediately for fast startup.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		log.Warn().Msg("using in-process memory store; data is lost on restart")
		return memstore.New(), nil

	case "sqlite":
		return storesqlite.New(ctx, cfg.SQLitePath)

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("ITDA_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		// Open connection synchronously since health checks need it immediately
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			bootstrapCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
			defer cancel()

			if err := storepg.Bootstrap(bootstrapCtx, dsn); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
			}
		}()
		return storepg.NewWithDB(db), nil

	case "redis":
		return storeredis.New(ctx, storeredis.Options{Addr: cfg.RedisAddr, Prefix: cfg.RedisPrefix})

	case "firestore":
		return storefs.New(ctx, cfg.FirestoreProjectID)

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
