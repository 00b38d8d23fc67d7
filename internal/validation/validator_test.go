// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package validation

import (
	"strings"
	"testing"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type churnQuery struct {
	Limit  int    `json:"limit" validate:"min=1,max=10000"`
	UserID string `json:"user_id" validate:"omitempty,userid"`
	Mode   string `json:"mode" validate:"omitempty,oneof=trained rule_based"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   churnQuery
		wantErr bool
		field   string
		message string
	}{
		{name: "valid", input: churnQuery{Limit: 100}},
		{name: "maximum limit", input: churnQuery{Limit: 10000, UserID: "player_1", Mode: "trained"}},
		{name: "zero limit", input: churnQuery{Limit: 0}, wantErr: true, field: "limit", message: "limit must be at least 1"},
		{name: "limit too large", input: churnQuery{Limit: 10001}, wantErr: true, field: "limit", message: "limit must be at most 10000"},
		{
			name: "user id with space", input: churnQuery{Limit: 1, UserID: "bad id"}, wantErr: true, field: "user_id",
			message: "user_id must be a non-empty identifier without whitespace (max 256 characters)",
		},
		{name: "bad mode", input: churnQuery{Limit: 1, Mode: "magic"}, wantErr: true, field: "mode", message: "mode must be one of: trained rule_based"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if verr != nil {
					t.Fatalf("unexpected error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if len(verr.Fields) != 1 {
				t.Fatalf("errors = %v", verr.Fields)
			}
			got := verr.Fields[0]
			if got.Field != tt.field || got.Error() != tt.message {
				t.Errorf("got %s: %q, want %s: %q", got.Field, got.Error(), tt.field, tt.message)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&churnQuery{Limit: 0})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_FAILED" || apiErr.Details["field"] != "limit" {
		t.Errorf("single = %+v", apiErr)
	}

	multi := ValidateStruct(&churnQuery{Limit: 0, UserID: "a b"})
	apiErr = multi.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("details = %+v", apiErr.Details)
	}
	if !strings.Contains(apiErr.Message, "limit: ") || !strings.Contains(apiErr.Message, "user_id: ") {
		t.Errorf("message = %q", apiErr.Message)
	}

	empty := (&RequestValidationError{}).ToAPIError()
	if empty.Message != "Validation failed" {
		t.Errorf("empty = %+v", empty)
	}
}

func TestIsUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"player_42", true},
		{"550e8400-e29b-41d4-a716-446655440000", true},
		{"", false},
		{"has space", false},
		{"tab\there", false},
		{"ctrl\x00", false},
		{strings.Repeat("a", 256), true},
		{strings.Repeat("a", 257), false},
	}
	for _, tt := range tests {
		if got := IsUserID(tt.in); got != tt.want {
			t.Errorf("IsUserID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEventRecordValidation(t *testing.T) {
	t.Parallel()

	valid := models.EventRecord{
		EventType:    "LEVEL_END",
		GlobalParams: models.GlobalParams{UserID: "u1"},
		LevelNumber:  3,
		StarsEarned:  2,
	}
	if verr := ValidateStruct(&valid); verr != nil {
		t.Fatalf("valid record rejected: %v", verr)
	}

	tests := []struct {
		name  string
		edit  func(r *models.EventRecord)
		field string
	}{
		{"unknown type", func(r *models.EventRecord) { r.EventType = "TELEPORT" }, "eventType"},
		{"missing user", func(r *models.EventRecord) { r.GlobalParams.UserID = "" }, "userId"},
		{"too many stars", func(r *models.EventRecord) { r.StarsEarned = 6 }, "starsEarned"},
		{"negative money", func(r *models.EventRecord) { r.RealMoneyValue = -1 }, "realMoneyValue"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := valid
			tt.edit(&rec)
			verr := ValidateStruct(&rec)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if got := verr.Fields[0].Field; got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}
}

func TestUserProfileValidation(t *testing.T) {
	t.Parallel()

	if verr := ValidateStruct(&models.UserProfile{UserID: "u1", TotalSessions: 3}); verr != nil {
		t.Errorf("valid profile rejected: %v", verr)
	}
	verr := ValidateStruct(&models.UserProfile{UserID: "u1", TotalSessions: -1})
	if verr == nil || verr.Fields[0].Field != "total_sessions" {
		t.Errorf("negative sessions: %v", verr)
	}
}
