// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package metrics registers the Prometheus collectors for the API, the
analysis components and the snapshot store.

Collectors are created with promauto on the default registry and served by
promhttp at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

API:
  - api_requests_total: requests by method, chi route pattern and status_code
  - api_request_duration_seconds: latency by method and route pattern
  - api_active_requests: in-flight requests
  - api_rate_limit_hits_total: 429 responses by tier (analytics, health)

Analysis:
  - playmetric_analysis_duration_seconds: runs by component
    (overview, levels, churn, segments, insights, recommendations)
  - playmetric_analysis_errors_total: failed runs by component
  - playmetric_snapshot_records: users and events in the last snapshot
  - playmetric_level_cache_hits_total / playmetric_level_cache_misses_total

Churn model:
  - playmetric_churn_model_trained: 1 trained, 0 rule-based
  - playmetric_churn_predictions_total: by risk band and mode
  - playmetric_churn_training_runs_total: by result
  - playmetric_churn_training_accuracy: training-set accuracy of the last fit
  - playmetric_recommendations_total: by priority bucket

Store:
  - playmetric_store_query_duration_seconds: by backend and operation
  - playmetric_store_query_errors_total: by backend and operation
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: by name and result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: by name, from_state and to_state

# Usage

The Record helpers hide label ordering from callers:

	start := time.Now()
	result, err := analyze(snap)
	metrics.RecordAnalysis("levels", time.Since(start), err)
*/
package metrics
