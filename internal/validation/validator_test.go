// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/newsrank/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Feedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.FeedbackRequest
		wantMsg string
	}{
		{name: "like", req: models.FeedbackRequest{Action: "like"}},
		{name: "dislike with user", req: models.FeedbackRequest{Action: "dislike", UserID: "alice"}},
		{name: "missing action", req: models.FeedbackRequest{}, wantMsg: "action is required"},
		{name: "unknown action", req: models.FeedbackRequest{Action: "share"}, wantMsg: "action must be one of: like dislike"},
		{name: "control characters", req: models.FeedbackRequest{Action: "like", UserID: "a\x00b"}, wantMsg: "userId must not contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.req)
			if tt.wantMsg == "" {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatalf("ValidateStruct() = nil, want %q", tt.wantMsg)
			}
			if got := verr.Error(); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_Source(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     models.CreateSourceRequest
		wantTag []string
	}{
		{name: "valid", req: models.CreateSourceRequest{Name: "BBC", URL: "https://feeds.bbci.co.uk/news/rss.xml"}},
		{name: "missing both", req: models.CreateSourceRequest{}, wantTag: []string{"required", "required"}},
		{name: "bad url", req: models.CreateSourceRequest{Name: "x", URL: "not a url"}, wantTag: []string{"url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verr := ValidateStruct(&tt.req)
			var tags []string
			if verr != nil {
				for _, e := range verr.Errors() {
					tags = append(tags, e.Tag())
				}
			}
			if diff := cmp.Diff(tt.wantTag, tags); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&models.FeedbackRequest{Action: "share"}).ToAPIError()
	want := &APIError{
		Code:    CodeValidation,
		Message: "action must be one of: like dislike",
		Details: map[string]interface{}{"field": "action", "tag": "oneof"},
	}
	if diff := cmp.Diff(want, single); diff != "" {
		t.Errorf("single error mismatch (-want +got):\n%s", diff)
	}

	multi := ValidateStruct(&models.CreateSourceRequest{}).ToAPIError()
	if multi.Message != "name is required; url is required" {
		t.Errorf("Message = %q", multi.Message)
	}
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("Details = %#v, want two fields", multi.Details)
	}
}

func TestTranslate_MinMax(t *testing.T) {
	t.Parallel()

	type query struct {
		Page  int    `json:"page" validate:"min=1"`
		Query string `json:"q" validate:"max=3"`
	}
	verr := ValidateStruct(&query{Page: 0, Query: "long"})
	if verr == nil {
		t.Fatal("ValidateStruct() = nil")
	}
	want := "page must be at least 1; q must be at most 3 characters"
	if got := verr.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
