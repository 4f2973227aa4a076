package config

import (
	"os"
	"testing"
)

func unsetEnv(keys ...string) {
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	unsetEnv("ITDA_BUILD_TARGET", "ITDA_DB_DRIVER", "ITDA_EMBED_DIMENSION", "ITDA_COUNSEL_TOP_K", "ITDA_DEFAULT_LANGUAGE")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.SQLitePath == "" {
		t.Fatalf("local build target should default to sqlite, got %+v", cfg)
	}
	if cfg.EmbedDimension != 768 || cfg.CounselTopK != 3 || cfg.DefaultLanguage != "ko" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("ITDA_EMBED_MODEL", "test-model")
	_ = os.Setenv("ITDA_DB_DRIVER", "memory")
	defer unsetEnv("ITDA_EMBED_MODEL", "ITDA_DB_DRIVER")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.EmbedModel != "test-model" || cfg.DBDriver != "memory" {
		t.Fatalf("env override failed: %+v", cfg)
	}
}

func TestResolveDefaults(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantDB  string
		wantErr bool
	}{
		{name: "local", mutate: func(c *Config) { c.BuildTarget, c.DBDriver = "local", "auto" }, wantDB: "sqlite"},
		{name: "cloud-dev needs dsn", mutate: func(c *Config) { c.BuildTarget, c.DBDriver = "cloud-dev", "auto" }, wantErr: true},
		{name: "cloud-dev", mutate: func(c *Config) {
			c.BuildTarget, c.DBDriver, c.PostgresDSN = "cloud-dev", "", "postgres://x"
		}, wantDB: "postgres"},
		{name: "cloud", mutate: func(c *Config) {
			c.BuildTarget, c.DBDriver, c.FirestoreProjectID = "cloud", "auto", "proj"
		}, wantDB: "firestore"},
		{name: "explicit redis", mutate: func(c *Config) { c.DBDriver = "redis" }, wantDB: "redis"},
		{name: "bad target", mutate: func(c *Config) { c.BuildTarget = "mars" }, wantErr: true},
		{name: "bad driver", mutate: func(c *Config) { c.DBDriver = "spanner" }, wantErr: true},
		{name: "bad language", mutate: func(c *Config) { c.DefaultLanguage = "fr" }, wantErr: true},
		{name: "bad generation", mutate: func(c *Config) { c.GenerationProvider = "gemini" }, wantErr: true},
		{name: "zero dimension", mutate: func(c *Config) { c.EmbedDimension = 0 }, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewForTesting()
			tc.mutate(cfg)
			err := cfg.ResolveDefaults()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got driver %q", cfg.DBDriver)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DBDriver != tc.wantDB {
				t.Fatalf("db driver: want %s got %s", tc.wantDB, cfg.DBDriver)
			}
		})
	}
}
