package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the It-Da service.
// Environment variables are parsed from the ITDA_ prefix.
type Config struct {
	// Build target selects the default history store: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override driver: auto, memory, sqlite, postgres, redis, firestore
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// History store backends
	PostgresDSN        string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath         string `envconfig:"SQLITE_PATH" default:""`
	RedisAddr          string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix        string `envconfig:"REDIS_PREFIX" default:"itda"`
	FirestoreProjectID string `envconfig:"FIRESTORE_PROJECT_ID" default:""`

	// Embedding Configuration
	EmbedProvider  string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel     string `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`
	EmbedDimension int    `envconfig:"EMBED_DIMENSION" default:"768"`
	OllamaURL      string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Vector index
	WeaviateURL    string `envconfig:"WEAVIATE_URL" default:"weaviate:8080"`
	KnowledgeClass string `envconfig:"KNOWLEDGE_CLASS" default:"CounselKnowledge"`
	CounselTopK    int    `envconfig:"COUNSEL_TOP_K" default:"3"`

	// Generation and analysis
	GenerationProvider string `envconfig:"GENERATION_PROVIDER" default:"openai"`
	// Empty selects the provider default model.
	GenerationModel    string `envconfig:"GENERATION_MODEL" default:""`
	AnalysisModel      string `envconfig:"ANALYSIS_MODEL" default:"gpt-4o-mini"`
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY" default:""`
	AnthropicAPIKey    string `envconfig:"ANTHROPIC_API_KEY" default:""`

	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"ko"`

	// Owner used when requests carry no X-Owner-ID header. Empty disables the fallback.
	DevOwnerID string `envconfig:"DEV_OWNER_ID" default:""`

	// Bearer token for operator-only routes (knowledge ingest). Empty disables them.
	AdminToken string `envconfig:"ADMIN_TOKEN" default:""`

	// Health check configuration
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// Bootstrap timeout for vector index schema creation
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud-dev":
		defaultDB = "postgres"
	case "cloud":
		defaultDB = "firestore"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	allowedDB := map[string]bool{"memory": true, "sqlite": true, "postgres": true, "redis": true, "firestore": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "~/.itda/itda.db"
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required for DB_DRIVER=postgres")
	}
	if c.DBDriver == "firestore" && c.FirestoreProjectID == "" {
		return fmt.Errorf("FIRESTORE_PROJECT_ID is required for DB_DRIVER=firestore")
	}

	switch c.EmbedProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}
	switch c.GenerationProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported GENERATION_PROVIDER: %s", c.GenerationProvider)
	}
	switch c.DefaultLanguage {
	case "ko", "en":
	default:
		return fmt.Errorf("unsupported DEFAULT_LANGUAGE: %s", c.DefaultLanguage)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("EMBED_DIMENSION must be positive, got %d", c.EmbedDimension)
	}
	if c.CounselTopK <= 0 {
		return fmt.Errorf("COUNSEL_TOP_K must be positive, got %d", c.CounselTopK)
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with ITDA_
// Example: ITDA_DB_DRIVER, ITDA_HTTP_PORT
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ITDA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Int("embed_dimension", cfg.EmbedDimension).
		Str("generation_provider", cfg.GenerationProvider).
		Str("generation_model", cfg.GenerationModel).
		Str("analysis_model", cfg.AnalysisModel).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Bool("openai_key_present", cfg.OpenAIAPIKey != "").
		Bool("anthropic_key_present", cfg.AnthropicAPIKey != "").
		Str("weaviate_url", cfg.WeaviateURL).
		Str("knowledge_class", cfg.KnowledgeClass).
		Int("counsel_top_k", cfg.CounselTopK).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "memory",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		RedisPrefix:               "itda-test",
		EmbedProvider:             "ollama",
		EmbedModel:                "nomic-embed-text",
		EmbedDimension:            768,
		OllamaURL:                 "http://localhost:11434",
		WeaviateURL:               "localhost:8082",
		KnowledgeClass:            "CounselKnowledge",
		CounselTopK:               3,
		GenerationProvider:        "openai",
		GenerationModel:           "gpt-4o-mini",
		AnalysisModel:             "gpt-4o-mini",
		DefaultLanguage:           "ko",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
