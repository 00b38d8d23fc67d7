// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package api exposes the analytics service over HTTP.

Every endpoint is a GET under /api/v1 and answers with the same envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors set success to false and fill error.code with one of
VALIDATION_FAILED (400), NOT_FOUND (404), TOO_MANY_REQUESTS (429),
DATABASE_ERROR (500) or SERVICE_UNAVAILABLE (503, store circuit open).

Endpoints:

	GET /api/v1/health                      store and churn model status
	GET /api/v1/health/live                 liveness probe
	GET /api/v1/analytics/overview          headline metrics
	GET /api/v1/analytics/churn?limit=N     churn predictions, 1..10000, default 100
	GET /api/v1/analytics/levels            level difficulty analysis
	GET /api/v1/analytics/users/segments    tag and lifecycle stage counts
	GET /api/v1/analytics/users/{userID}    per-player drill-down
	GET /api/v1/analytics/recommendations   prioritized recommendations
	GET /api/v1/analytics/insights          strategic insight bundle
	GET /api/v1/analytics/stats             record counts
	GET /metrics                            Prometheus exposition
*/
package api
