// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package churn

import "fmt"

// Config contains all configuration for the churn model.
type Config struct {
	// Forest contains random forest training parameters.
	Forest ForestParams `json:"forest"`

	// MinTrainingSamples is the smallest labeled set Train accepts.
	MinTrainingSamples int `json:"min_training_samples"`

	// ChurnAfterDays labels a user as churned when inactive longer than this
	// many days. Used by LabelByInactivity.
	ChurnAfterDays int `json:"churn_after_days"`

	// ArtifactName is the key the trained model is stored under.
	ArtifactName string `json:"artifact_name"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Forest:             DefaultForestParams(),
		MinTrainingSamples: 20,
		ChurnAfterDays:     14,
		ArtifactName:       "churn",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Forest.Trees < 1 {
		return fmt.Errorf("forest.trees must be positive, got %d", c.Forest.Trees)
	}
	if c.Forest.MaxDepth < 1 {
		return fmt.Errorf("forest.max_depth must be positive, got %d", c.Forest.MaxDepth)
	}
	if c.Forest.MinSamplesSplit < 2 {
		return fmt.Errorf("forest.min_samples_split must be at least 2, got %d", c.Forest.MinSamplesSplit)
	}
	if c.MinTrainingSamples < 2 {
		return fmt.Errorf("min_training_samples must be at least 2, got %d", c.MinTrainingSamples)
	}
	if c.ChurnAfterDays < 1 {
		return fmt.Errorf("churn_after_days must be positive, got %d", c.ChurnAfterDays)
	}
	if c.ArtifactName == "" {
		return fmt.Errorf("artifact_name is required")
	}
	return nil
}
