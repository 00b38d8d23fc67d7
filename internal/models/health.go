// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import (
	"time"
)

// HealthStatus is the body of the health endpoint. Status is "healthy" when
// the store answers and "degraded" otherwise.
type HealthStatus struct {
	Status              string     `json:"status"`
	Version             string     `json:"version"`
	StoreBackend        string     `json:"store_backend"`
	StoreConnected      bool       `json:"store_connected"`
	ChurnModelMode      ChurnMode  `json:"churn_model_mode"`
	ChurnModelTrainedAt *time.Time `json:"churn_model_trained_at,omitempty"`
	UptimeSeconds       float64    `json:"uptime_seconds"`
	Timestamp           time.Time  `json:"timestamp"`
}
