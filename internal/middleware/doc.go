// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package middleware provides the HTTP middleware shared by the PlayMetric API.

All middleware use the chi signature func(http.Handler) http.Handler so they
can be mounted with Router.Use or Router.With.

Key Components:

  - RequestID: propagates or generates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request counters and latency histograms keyed by route pattern
  - Compression: gzip for responses above a size threshold
  - SlowRequests: warns about requests slower than a threshold

Typical stack for the analytics routes:

	r.Route("/api/v1/analytics", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Use(middleware.SlowRequests(time.Second, logger))
	    r.Use(middleware.Compression(middleware.DefaultCompressionThreshold))
	    r.Get("/overview", h.Overview)
	})

Route patterns are used as the metric label rather than the raw path, so
/api/v1/analytics/users/{userID} counts as a single series.
*/
package middleware
