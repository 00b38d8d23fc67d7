// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that the configuration is usable. Errors name the
// environment variable to fix.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	if err := c.validateChurn(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", envVarFor("server.port"), c.Server.Port)
	}
	if err := positiveDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}
	if err := positiveDuration("server.shutdown_timeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if c.Server.SlowRequest < 0 {
		return fmt.Errorf("%s must not be negative, got %s", envVarFor("server.slow_request"), c.Server.SlowRequest)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "badger":
		if !c.Store.InMemory && c.Store.BadgerPath == "" {
			return fmt.Errorf("%s is required unless %s=true", envVarFor("store.badger_path"), envVarFor("store.in_memory"))
		}
	case "mongo":
		if err := validateMongoURI(c.Store.MongoURI); err != nil {
			return fmt.Errorf("%s is invalid: %w", envVarFor("store.mongo_uri"), err)
		}
		if c.Store.MongoDatabase == "" {
			return fmt.Errorf("%s is required when %s=mongo", envVarFor("store.mongo_database"), envVarFor("store.backend"))
		}
		if err := positiveDuration("store.mongo_timeout", c.Store.MongoTimeout); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s must be 'badger' or 'mongo', got: %s", envVarFor("store.backend"), c.Store.Backend)
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	a := c.Analytics
	if a.DefaultChurnLimit < 1 {
		return fmt.Errorf("%s must be positive, got %d", envVarFor("analytics.default_churn_limit"), a.DefaultChurnLimit)
	}
	if a.MaxChurnLimit < a.DefaultChurnLimit {
		return fmt.Errorf("%s (%d) must be at least %s (%d)",
			envVarFor("analytics.max_churn_limit"), a.MaxChurnLimit,
			envVarFor("analytics.default_churn_limit"), a.DefaultChurnLimit)
	}
	if a.RecommendationChurnUsers < 0 {
		return fmt.Errorf("%s must not be negative, got %d", envVarFor("analytics.recommendation_churn_users"), a.RecommendationChurnUsers)
	}
	if a.LevelCacheTTL < 0 {
		return fmt.Errorf("%s must not be negative, got %s", envVarFor("analytics.level_cache_ttl"), a.LevelCacheTTL)
	}
	return nil
}

func (c *Config) validateChurn() error {
	ch := c.Churn
	checks := []struct {
		path string
		val  int
		min  int
	}{
		{"churn.trees", ch.Trees, 1},
		{"churn.max_depth", ch.MaxDepth, 1},
		{"churn.min_samples_split", ch.MinSamplesSplit, 2},
		{"churn.churn_after_days", ch.ChurnAfterDays, 1},
		{"churn.min_training_samples", ch.MinTrainingSamples, 2},
	}
	for _, chk := range checks {
		if chk.val < chk.min {
			return fmt.Errorf("%s must be at least %d, got %d", envVarFor(chk.path), chk.min, chk.val)
		}
	}
	if ch.TrainOnStartup && !ch.EnabledTraining {
		return fmt.Errorf("%s=true requires %s=true", envVarFor("churn.train_on_startup"), envVarFor("churn.enabled_training"))
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitRequests < 1 {
		return fmt.Errorf("%s must be positive, got %d", envVarFor("security.rate_limit_requests"), c.Security.RateLimitRequests)
	}
	return positiveDuration("security.rate_limit_window", c.Security.RateLimitWindow)
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("%s must be one of trace, debug, info, warn, error, fatal, panic, disabled; got: %s",
			envVarFor("logging.level"), c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be 'json' or 'console', got: %s", envVarFor("logging.format"), c.Logging.Format)
	}
	return nil
}

func positiveDuration(path string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", envVarFor(path), d)
	}
	return nil
}

// validateMongoURI checks the scheme and host of a MongoDB connection string.
func validateMongoURI(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("connection string is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URI: %w", err)
	}
	if parsed.Scheme != "mongodb" && parsed.Scheme != "mongodb+srv" {
		return fmt.Errorf("scheme must be mongodb or mongodb+srv, got: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
