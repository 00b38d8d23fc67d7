// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator with the custom tags this
// service needs and translates failures into the API's VALIDATION_FAILED
// format. Field names in messages use the struct's json tag, so a failing
// query parameter is reported under the name the client sent.
//
// # Custom Tags
//
//   - userid: non-empty, at most 256 bytes, no whitespace or control characters
//   - eventtype: an event type the record decoder understands, in either the
//     canonical lower-case form or the legacy upper-case form
//
// # Usage
//
//	type ChurnRequest struct {
//	    Limit int `json:"limit" validate:"min=1,max=10000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
//	    return
//	}
//
// Imported records are validated with the same instance:
//
//	for i := range batch.Events {
//	    if verr := validation.ValidateStruct(&batch.Events[i]); verr != nil {
//	        return fmt.Errorf("event %d: %w", i, verr)
//	    }
//	}
package validation
