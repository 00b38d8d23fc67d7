// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - analysis runs per component
// - level analysis cache efficiency
// - churn model mode and predictions
// - recommendation output
// - snapshot store latency and the Mongo circuit breaker

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"tier"},
	)

	// Analysis Metrics
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playmetric_analysis_duration_seconds",
			Help:    "Duration of analysis runs by component",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"component"}, // overview, levels, churn, segments, insights, recommendations
	)

	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playmetric_analysis_errors_total",
			Help: "Total number of failed analysis runs",
		},
		[]string{"component"},
	)

	SnapshotSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playmetric_snapshot_records",
			Help: "Number of records in the most recent snapshot",
		},
		[]string{"type"}, // users, events
	)

	// Level Cache Metrics
	LevelCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playmetric_level_cache_hits_total",
			Help: "Level analysis results served from cache",
		},
	)

	LevelCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playmetric_level_cache_misses_total",
			Help: "Level analysis results recomputed",
		},
	)

	// Churn Model Metrics
	ChurnModelTrained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playmetric_churn_model_trained",
			Help: "1 when the churn model runs in trained mode, 0 when rule-based",
		},
	)

	ChurnPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playmetric_churn_predictions_total",
			Help: "Churn predictions by risk band and model mode",
		},
		[]string{"risk", "mode"},
	)

	ChurnTrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playmetric_churn_training_runs_total",
			Help: "Churn model training attempts",
		},
		[]string{"result"}, // success, failure
	)

	ChurnTrainingAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playmetric_churn_training_accuracy",
			Help: "Training-set accuracy of the last successful fit",
		},
	)

	// Recommendation Metrics
	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playmetric_recommendations_total",
			Help: "Recommendations emitted by priority bucket",
		},
		[]string{"priority"},
	)

	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playmetric_store_query_duration_seconds",
			Help:    "Duration of snapshot store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playmetric_store_query_errors_total",
			Help: "Snapshot store operation failures",
		},
		[]string{"backend", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRateLimitHit counts a request rejected by the given rate limit tier.
func RecordRateLimitHit(tier string) {
	APIRateLimitHits.WithLabelValues(tier).Inc()
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAnalysis records one analysis run.
func RecordAnalysis(component string, duration time.Duration, err error) {
	AnalysisDuration.WithLabelValues(component).Observe(duration.Seconds())
	if err != nil {
		AnalysisErrors.WithLabelValues(component).Inc()
	}
}

// RecordSnapshot records the size of the snapshot being analyzed.
func RecordSnapshot(users, events int) {
	SnapshotSize.WithLabelValues("users").Set(float64(users))
	SnapshotSize.WithLabelValues("events").Set(float64(events))
}

// RecordLevelCache records a level cache lookup.
func RecordLevelCache(hit bool) {
	if hit {
		LevelCacheHits.Inc()
	} else {
		LevelCacheMisses.Inc()
	}
}

// SetChurnModelTrained reflects the churn model mode.
func SetChurnModelTrained(trained bool) {
	if trained {
		ChurnModelTrained.Set(1)
	} else {
		ChurnModelTrained.Set(0)
	}
}

// RecordChurnPrediction counts one prediction.
func RecordChurnPrediction(risk, mode string) {
	ChurnPredictions.WithLabelValues(risk, mode).Inc()
}

// RecordChurnTraining records a training attempt.
func RecordChurnTraining(accuracy float64, err error) {
	if err != nil {
		ChurnTrainingRuns.WithLabelValues("failure").Inc()
		return
	}
	ChurnTrainingRuns.WithLabelValues("success").Inc()
	ChurnTrainingAccuracy.Set(accuracy)
}

// RecordRecommendations counts emitted recommendations per bucket.
func RecordRecommendations(counts map[string]int) {
	for priority, n := range counts {
		RecommendationsGenerated.WithLabelValues(priority).Add(float64(n))
	}
}

// RecordStoreQuery records a store operation.
func RecordStoreQuery(backend, operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(backend, operation).Inc()
	}
}

// RecordCircuitBreakerRequest counts a request through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change.
// States: 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
