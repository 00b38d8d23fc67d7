// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package config

import (
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/logging"
	"github.com/vishnugarg323/PlayMetric/internal/service"
	"github.com/vishnugarg323/PlayMetric/internal/store"
)

// Config is the complete process configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Churn     ChurnConfig     `koanf:"churn"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	SlowRequest     time.Duration `koanf:"slow_request"`
}

// StoreConfig selects and configures the data store.
type StoreConfig struct {
	// Backend is badger (embedded, default) or mongo.
	Backend       string        `koanf:"backend"`
	BadgerPath    string        `koanf:"badger_path"`
	InMemory      bool          `koanf:"in_memory"`
	MongoURI      string        `koanf:"mongo_uri"`
	MongoDatabase string        `koanf:"mongo_database"`
	MongoTimeout  time.Duration `koanf:"mongo_timeout"`

	// ImportPath is an optional JSON batch loaded into the store at startup.
	ImportPath string `koanf:"import_path"`
}

// AnalyticsConfig holds query limits.
type AnalyticsConfig struct {
	LevelCacheTTL            time.Duration `koanf:"level_cache_ttl"`
	DefaultChurnLimit        int           `koanf:"default_churn_limit"`
	MaxChurnLimit            int           `koanf:"max_churn_limit"`
	RecommendationChurnUsers int           `koanf:"recommendation_churn_users"`
}

// ChurnConfig controls churn model training.
type ChurnConfig struct {
	// EnabledTraining allows the bootstrap service to train a model.
	// When false the model stays rule-based unless an artifact exists.
	EnabledTraining bool `koanf:"enabled_training"`

	// TrainOnStartup trains once at startup when no artifact is stored.
	TrainOnStartup bool `koanf:"train_on_startup"`

	Trees              int   `koanf:"trees"`
	MaxDepth           int   `koanf:"max_depth"`
	MinSamplesSplit    int   `koanf:"min_samples_split"`
	Seed               int64 `koanf:"seed"`
	ChurnAfterDays     int   `koanf:"churn_after_days"`
	MinTrainingSamples int   `koanf:"min_training_samples"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn, error, fatal, panic or disabled.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes file:line in every entry.
	Caller bool `koanf:"caller"`
}

// StoreOptions converts the store section for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Store.Backend,
		BadgerPath:    c.Store.BadgerPath,
		InMemory:      c.Store.InMemory,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		MongoTimeout:  c.Store.MongoTimeout,
	}
}

// ServiceConfig converts the analytics section.
func (c *Config) ServiceConfig(version string) service.Config {
	return service.Config{
		DefaultChurnLimit:        c.Analytics.DefaultChurnLimit,
		MaxChurnLimit:            c.Analytics.MaxChurnLimit,
		RecommendationChurnUsers: c.Analytics.RecommendationChurnUsers,
		LevelCacheTTL:            c.Analytics.LevelCacheTTL,
		Version:                  version,
	}
}

// ChurnModelConfig converts the churn section.
func (c *Config) ChurnModelConfig() *churn.Config {
	cfg := churn.DefaultConfig()
	cfg.Forest = churn.ForestParams{
		Trees:           c.Churn.Trees,
		MaxDepth:        c.Churn.MaxDepth,
		MinSamplesSplit: c.Churn.MinSamplesSplit,
		Seed:            c.Churn.Seed,
	}
	cfg.ChurnAfterDays = c.Churn.ChurnAfterDays
	cfg.MinTrainingSamples = c.Churn.MinTrainingSamples
	return cfg
}

// LoggingOptions converts the logging section.
func (c *Config) LoggingOptions() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
