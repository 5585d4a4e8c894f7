// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to FeedbackRecorded.
const SchemaVersion = 1

// Topics.
const (
	TopicFeedbackRecorded = "feedback.recorded"

	// FeedbackSubjects covers every feedback topic in the JetStream stream.
	FeedbackSubjects = "feedback.>"
)

// FeedbackRecorded is emitted after a like or dislike has been stored.
type FeedbackRecorded struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	ArticleID     int64     `json:"article_id"`
	Action        string    `json:"action"`
	Keywords      []string  `json:"keywords,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewFeedbackRecorded creates an event with a unique ID, timestamp, and schema version.
func NewFeedbackRecorded(userID string, articleID int64, action string, keywords []string) *FeedbackRecorded {
	return &FeedbackRecorded{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		ArticleID:     articleID,
		Action:        action,
		Keywords:      keywords,
		Timestamp:     time.Now().UTC(),
	}
}

// GetSchemaVersion returns the schema version, defaulting to 1 for events without one.
func (e *FeedbackRecorded) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// Validate checks required fields.
func (e *FeedbackRecorded) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required"}
	}
	if e.ArticleID <= 0 {
		return &ValidationError{Field: "article_id", Message: "must be positive"}
	}
	if e.Action != "like" && e.Action != "dislike" {
		return &ValidationError{Field: "action", Message: "must be like or dislike"}
	}
	return nil
}

// Topic returns the topic the event is published on.
func (e *FeedbackRecorded) Topic() string {
	return TopicFeedbackRecorded
}
