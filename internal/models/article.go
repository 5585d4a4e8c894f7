// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package models

import (
	"strings"
	"time"
)

// Action values accepted in the user action log.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// DefaultCategory is assigned to sources registered without one.
const DefaultCategory = "general"

// Article is a stored feed item. Categories is the comma-joined category list
// as it arrived from the feed.
type Article struct {
	ID          int64     `json:"id"`
	SourceID    int64     `json:"source_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	PubDate     time.Time `json:"pub_date"`
	Author      string    `json:"author,omitempty"`
	Categories  string    `json:"categories"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined from rss_sources when the query asks for it.
	SourceName     string `json:"source_name,omitempty"`
	SourceCategory string `json:"source_category,omitempty"`
}

// CategoryList splits Categories into trimmed, non-empty tokens.
func (a *Article) CategoryList() []string {
	if a.Categories == "" {
		return nil
	}
	parts := strings.Split(a.Categories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Source is a registered feed.
type Source struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAction is one entry in the append-only feedback log.
type UserAction struct {
	UserID    string    `json:"user_id"`
	ArticleID int64     `json:"article_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidAction reports whether action is like or dislike.
func ValidAction(action string) bool {
	return action == ActionLike || action == ActionDislike
}

// UserInterest is a keyword weight, unique per (user, keyword).
type UserInterest struct {
	UserID    string    `json:"user_id"`
	Keyword   string    `json:"keyword"`
	Weight    float64   `json:"weight"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArticleEmbedding holds the stored title and content vectors for an article.
type ArticleEmbedding struct {
	ArticleID        int64
	TitleEmbedding   []float64
	ContentEmbedding []float64
	Model            string
}
