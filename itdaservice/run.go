package itdaservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/analysis"
	"github.com/parksyoung/It-Da-sub000/internal/api"
	"github.com/parksyoung/It-Da-sub000/internal/config"
	emb "github.com/parksyoung/It-Da-sub000/internal/embeddings"
	"github.com/parksyoung/It-Da-sub000/internal/factory"
	"github.com/parksyoung/It-Da-sub000/internal/generation"
	"github.com/parksyoung/It-Da-sub000/internal/health"
	"github.com/parksyoung/It-Da-sub000/internal/logger"
	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/searchindex"
	"github.com/parksyoung/It-Da-sub000/internal/services"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// deps are the external components the service runs on.
type deps struct {
	store     store.Store
	index     searchindex.Index
	embedder  emb.EmbeddingProvider
	generator generation.Generator
	engine    analysis.Engine
}

// Run starts the It-Da HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("itda-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("weaviate_url", cfg.WeaviateURL).
		Str("embed_provider", cfg.EmbedProvider).
		Str("generation_provider", cfg.GenerationProvider).
		Msg("It-Da service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	d, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()

	// Start health checkers; only the store gates startup
	svcHealth, storeChecker := startHealthCheckers(ctx, cfg, log, d)
	if err := waitUntilHealthy(ctx, cfg, storeChecker); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	router := buildRouter(cfg, log, d, svcHealth)
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*deps, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, err
	}

	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		_ = st.Close()
		return nil, err
	}

	embProvider := factory.NewEmbeddingProvider(ctx, cfg, log)
	if embProvider == nil {
		_ = st.Close()
		return nil, fmt.Errorf("embedding provider not configured")
	}

	return &deps{
		store:     st,
		index:     idx,
		embedder:  embProvider,
		generator: factory.NewGenerator(cfg, log),
		engine:    factory.NewAnalysisEngine(cfg, log),
	}, nil
}

// buildRouter wires services into the HTTP router.
func buildRouter(cfg *config.Config, log zerolog.Logger, d *deps, svcHealth *health.ServiceHealthChecker) *mux.Router {
	people := services.NewPersonService(d.store, d.engine, logger.Component(log, "person"))
	counsel := services.NewCounselService(d.store, d.embedder, d.index, d.generator, logger.Component(log, "counsel"),
		func(o *services.CounselOptions) {
			o.TopK = cfg.CounselTopK
			o.Dimension = cfg.EmbedDimension
		})
	knowledge := services.NewKnowledgeService(d.embedder, d.index, cfg.EmbedDimension, logger.Component(log, "knowledge"))

	return api.NewRouter(api.Deps{
		People:      people,
		Counsel:     counsel,
		Knowledge:   knowledge,
		IsHealthy:   svcHealth.IsHealthy,
		Status:      svcHealth.Status,
		Components:  svcHealth.Components,
		DevOwnerID:  cfg.DevOwnerID,
		AdminToken:  cfg.AdminToken,
		DefaultLang: model.Language(cfg.DefaultLanguage),
		Log:         log,
	})
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *deps) (*health.ServiceHealthChecker, *health.PingChecker) {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewHealthChecker(d.store, log, probeTimeout)
	idxChecker := searchindex.NewHealthChecker(d.index, log, probeTimeout)
	embChecker := emb.NewHealthChecker(d.embedder, log, probeTimeout)

	checkers := []health.HealthChecker{storeChecker, idxChecker, embChecker}
	for _, c := range checkers {
		go c.Start(ctx, interval)
	}

	// submissions and reads need only the store
	svcHealth := health.NewServiceHealthChecker(log, []health.HealthChecker{storeChecker}, idxChecker, embChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth, storeChecker
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// analysis and generation calls can take far longer than a page load
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until the checker reports healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, checker health.HealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if checker.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: %s not healthy within %d seconds", checker.Name(), timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
