// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations in priority order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playmetric/config.yaml",
	"/etc/playmetric/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. They are applied first and
// overridden by the config file and then the environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			SlowRequest:     time.Second,
		},
		Store: StoreConfig{
			Backend:       "badger",
			BadgerPath:    "/data/playmetric",
			InMemory:      false,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "gameanalytics",
			MongoTimeout:  10 * time.Second,
		},
		Analytics: AnalyticsConfig{
			LevelCacheTTL:            5 * time.Minute,
			DefaultChurnLimit:        100,
			MaxChurnLimit:            10000,
			RecommendationChurnUsers: 50,
		},
		Churn: ChurnConfig{
			EnabledTraining:    true,
			TrainOnStartup:     false,
			Trees:              100,
			MaxDepth:           10,
			MinSamplesSplit:    20,
			Seed:               42,
			ChurnAfterDays:     14,
			MinTrainingSamples: 20,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration from the layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HTTP_PORT -> server.port, MONGODB_URI -> store.mongo_uri, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated string values of known slice
// fields. YAML lists are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_slow_request":     "server.slow_request",

	// Store
	"store_backend": "store.backend",
	"badger_path":   "store.badger_path",
	"badger_memory": "store.in_memory",
	"mongodb_uri":   "store.mongo_uri",
	"mongodb_db":    "store.mongo_database",
	"mongo_timeout": "store.mongo_timeout",
	"import_path":   "store.import_path",

	// Analytics
	"level_cache_ttl":            "analytics.level_cache_ttl",
	"churn_default_limit":        "analytics.default_churn_limit",
	"churn_max_limit":            "analytics.max_churn_limit",
	"recommendation_churn_users": "analytics.recommendation_churn_users",

	// Churn model
	"churn_training_enabled":     "churn.enabled_training",
	"churn_train_on_startup":     "churn.train_on_startup",
	"churn_trees":                "churn.trees",
	"churn_max_depth":            "churn.max_depth",
	"churn_min_samples_split":    "churn.min_samples_split",
	"churn_seed":                 "churn.seed",
	"churn_after_days":           "churn.churn_after_days",
	"churn_min_training_samples": "churn.min_training_samples",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its config path.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// envVarFor returns the environment variable that sets path, for error
// messages.
func envVarFor(path string) string {
	best := ""
	for k, v := range envMappings {
		if v == path && (best == "" || k < best) {
			best = k
		}
	}
	if best == "" {
		return path
	}
	return strings.ToUpper(best)
}
