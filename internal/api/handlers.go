// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vishnugarg323/PlayMetric/internal/service"
	"github.com/vishnugarg323/PlayMetric/internal/store"
	"github.com/vishnugarg323/PlayMetric/internal/validation"
)

// Handler serves the analytics endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a handler backed by svc.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// ChurnQuery are the query parameters of the churn endpoint.
type ChurnQuery struct {
	Limit int `json:"limit" validate:"min=1,max=10000"`
}

// Health reports store connectivity and churn model mode. It always
// answers 200 so load balancers can read the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.svc.Health(r.Context()))
}

// Live is a liveness probe with no dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// Overview returns headline metrics.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.Overview(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to compute overview", err)
		return
	}
	rw.Success(res)
}

// Churn returns churn predictions sorted by risk.
func (h *Handler) Churn(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			rw.ValidationError("limit must be an integer", map[string]interface{}{"field": "limit", "value": raw})
			return
		}
		q := ChurnQuery{Limit: n}
		if verr := validation.ValidateStruct(&q); verr != nil {
			apiErr := verr.ToAPIError()
			rw.ValidationError(apiErr.Message, apiErr.Details)
			return
		}
		limit = q.Limit
	}

	res, err := h.svc.Churn(r.Context(), limit)
	if err != nil {
		writeServiceError(rw, "failed to compute churn predictions", err)
		return
	}
	rw.Success(res)
}

// Levels returns the level difficulty analysis.
func (h *Handler) Levels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.Levels(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to analyze levels", err)
		return
	}
	rw.Success(res)
}

// Segments returns tag and lifecycle stage counts.
func (h *Handler) Segments(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.Segments(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to segment users", err)
		return
	}
	rw.Success(res)
}

// User returns the drill-down for one player.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")
	if !validation.IsUserID(userID) {
		rw.ValidationError("user_id must be a non-empty identifier without whitespace (max 256 characters)",
			map[string]interface{}{"field": "user_id", "value": userID})
		return
	}

	res, err := h.svc.UserAnalysis(r.Context(), userID)
	if err != nil {
		writeServiceError(rw, "failed to analyze user", err)
		return
	}
	rw.Success(res)
}

// Recommendations returns prioritized recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.Recommendations(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to generate recommendations", err)
		return
	}
	rw.Success(res)
}

// Insights returns the strategic insight bundle.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.Insights(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to synthesize insights", err)
		return
	}
	rw.Success(res)
}

// Stats returns record counts.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.svc.DataStats(r.Context())
	if err != nil {
		writeServiceError(rw, "failed to count records", err)
		return
	}
	rw.Success(res)
}

// writeServiceError maps store sentinels onto HTTP statuses.
func writeServiceError(rw *ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("user not found")
	case errors.Is(err, store.ErrStoreUnavailable):
		rw.ServiceUnavailable("data store temporarily unavailable")
	default:
		rw.DatabaseError(message, err)
	}
}
