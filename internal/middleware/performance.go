// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/logging"
)

// SlowRequests logs a warning for every request that takes longer than
// threshold. A non-positive threshold disables the check.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func SlowRequests(threshold time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		if threshold <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			if elapsed <= threshold {
				return
			}
			logger.Warn().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routeLabel(r)).
				Int("status", sw.status).
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Int64("duration_ms", elapsed.Milliseconds()).
				Int64("threshold_ms", threshold.Milliseconds()).
				Msg("Slow request detected")
		})
	}
}
