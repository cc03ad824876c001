// CulturalQuest - Gamified Cultural Recommendations
// Copyright 2026 sree-sphere
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sree-sphere/Qloo-CulturalQuest

package validation

import (
	"strings"
	"testing"
)

type likeRequest struct {
	UserID   string   `json:"userId" validate:"required,userid,max=128"`
	EntityID string   `json:"entityId" validate:"required,max=16"`
	Mood     string   `json:"mood,omitempty" validate:"omitempty,oneof=nostalgic adventurous"`
	Tags     []string `json:"tags,omitempty" validate:"max=2"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       likeRequest
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name: "valid",
			req:  likeRequest{UserID: "alice", EntityID: "e1", Mood: "nostalgic"},
		},
		{
			name:      "missing user",
			req:       likeRequest{EntityID: "e1"},
			wantField: "userId",
			wantTag:   "required",
			wantMsg:   "userId is required",
		},
		{
			name:      "slash in user id",
			req:       likeRequest{UserID: "a/b", EntityID: "e1"},
			wantField: "userId",
			wantTag:   "userid",
		},
		{
			name:      "padded user id",
			req:       likeRequest{UserID: " alice", EntityID: "e1"},
			wantField: "userId",
			wantTag:   "userid",
		},
		{
			name:      "control character",
			req:       likeRequest{UserID: "ali\nce", EntityID: "e1"},
			wantField: "userId",
			wantTag:   "userid",
		},
		{
			name:      "string too long",
			req:       likeRequest{UserID: "alice", EntityID: strings.Repeat("e", 17)},
			wantField: "entityId",
			wantTag:   "max",
			wantMsg:   "entityId must be at most 16 characters",
		},
		{
			name:      "unknown mood",
			req:       likeRequest{UserID: "alice", EntityID: "e1", Mood: "grumpy"},
			wantField: "mood",
			wantTag:   "oneof",
			wantMsg:   "mood must be one of: nostalgic adventurous",
		},
		{
			name:      "too many tags",
			req:       likeRequest{UserID: "alice", EntityID: "e1", Tags: []string{"a", "b", "c"}},
			wantField: "tags",
			wantTag:   "max",
			wantMsg:   "tags must be at most 2 items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
			if tt.wantMsg != "" && errs[0].Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	t.Run("single", func(t *testing.T) {
		t.Parallel()
		err := ValidateStruct(&likeRequest{UserID: "alice"})
		apiErr := err.ToAPIError()
		if apiErr.Code != ErrorCode {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "entityId" {
			t.Errorf("details = %v", apiErr.Details)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		t.Parallel()
		err := ValidateStruct(&likeRequest{})
		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("details = %v", apiErr.Details)
		}
		if !strings.Contains(apiErr.Message, "userId is required") || !strings.Contains(apiErr.Message, "entityId is required") {
			t.Errorf("message = %q", apiErr.Message)
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		apiErr := (&RequestValidationError{}).ToAPIError()
		if apiErr.Message != "Validation failed" {
			t.Errorf("message = %q", apiErr.Message)
		}
	})
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
