// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Store.Backend != "badger" {
		t.Errorf("Store.Backend = %q, want badger", cfg.Store.Backend)
	}
	if cfg.Analytics.DefaultChurnLimit != 100 || cfg.Analytics.MaxChurnLimit != 10000 {
		t.Errorf("churn limits = %d/%d", cfg.Analytics.DefaultChurnLimit, cfg.Analytics.MaxChurnLimit)
	}
	if cfg.Churn.Trees != 100 || cfg.Churn.MaxDepth != 10 || cfg.Churn.ChurnAfterDays != 14 {
		t.Errorf("churn = %+v", cfg.Churn)
	}
}

func TestLoadFile_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
store:
  backend: mongo
  mongo_uri: mongodb://mongo:27017
  mongo_database: telemetry
churn:
  trees: 25
security:
  cors_origins:
    - https://a.example
    - https://b.example
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.MongoDatabase != "telemetry" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Churn.Trees != 25 || cfg.Churn.MaxDepth != 10 {
		t.Errorf("file should override only what it sets: %+v", cfg.Churn)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("cors origins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("timeout default lost: %s", cfg.Server.Timeout)
	}
}

func TestLoadFile_EnvSlicesAndDurations(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://x.example, https://y.example,")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("LEVEL_CACHE_TTL", "2m")
	t.Setenv("BADGER_MEMORY", "true")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	want := []string{"https://x.example", "https://y.example"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("cors origins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("rate limit window = %s", cfg.Security.RateLimitWindow)
	}
	if cfg.Analytics.LevelCacheTTL != 2*time.Minute {
		t.Errorf("level cache ttl = %s", cfg.Analytics.LevelCacheTTL)
	}
	if !cfg.Store.InMemory {
		t.Error("BADGER_MEMORY not applied")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	t.Setenv("STORE_BACKEND", "postgres")
	_, err := LoadFile("")
	if err == nil || !strings.Contains(err.Error(), "STORE_BACKEND") {
		t.Errorf("expected STORE_BACKEND validation error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantEnv string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"badger path", func(c *Config) { c.Store.BadgerPath = "" }, "BADGER_PATH"},
		{"mongo uri scheme", func(c *Config) {
			c.Store.Backend = "mongo"
			c.Store.MongoURI = "http://localhost"
		}, "MONGODB_URI"},
		{"mongo database", func(c *Config) {
			c.Store.Backend = "mongo"
			c.Store.MongoDatabase = ""
		}, "MONGODB_DB"},
		{"churn limits", func(c *Config) { c.Analytics.MaxChurnLimit = 10 }, "CHURN_MAX_LIMIT"},
		{"trees", func(c *Config) { c.Churn.Trees = 0 }, "CHURN_TREES"},
		{"train without training", func(c *Config) {
			c.Churn.TrainOnStartup = true
			c.Churn.EnabledTraining = false
		}, "CHURN_TRAIN_ON_STARTUP"},
		{"rate limit", func(c *Config) { c.Security.RateLimitRequests = 0 }, "RATE_LIMIT_REQUESTS"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantEnv) {
				t.Errorf("error %q does not name %s", err, tt.wantEnv)
			}
		})
	}

	cfg := defaultConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitRequests = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled rate limit should skip checks: %v", err)
	}
}

func TestConversions(t *testing.T) {
	cfg := defaultConfig()
	cfg.Churn.Trees = 7
	cfg.Churn.ChurnAfterDays = 30

	cc := cfg.ChurnModelConfig()
	if cc.Forest.Trees != 7 || cc.ChurnAfterDays != 30 || cc.ArtifactName == "" {
		t.Errorf("churn config = %+v", cc)
	}
	if err := cc.Validate(); err != nil {
		t.Errorf("converted churn config invalid: %v", err)
	}

	sc := cfg.ServiceConfig("1.2.3")
	if sc.Version != "1.2.3" || sc.MaxChurnLimit != 10000 {
		t.Errorf("service config = %+v", sc)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("converted service config invalid: %v", err)
	}

	so := cfg.StoreOptions()
	if so.Backend != "badger" || so.BadgerPath != "/data/playmetric" {
		t.Errorf("store options = %+v", so)
	}

	lo := cfg.LoggingOptions()
	if lo.Level != "info" || !lo.Timestamp {
		t.Errorf("logging options = %+v", lo)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"HTTP_PORT":   "server.port",
		"MONGODB_URI": "store.mongo_uri",
		"log_level":   "logging.level",
		"HOME":        "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
