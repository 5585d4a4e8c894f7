// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mmcdole/gofeed"

	"github.com/tomtom215/newsrank/internal/models"
)

// Mapper converts parsed feed items into articles.
type Mapper struct {
	converter *md.Converter
	now       func() time.Time
}

// NewMapper creates a mapper that renders HTML fields as Markdown text.
func NewMapper() *Mapper {
	return &Mapper{
		converter: md.NewConverter("", true, nil),
		now:       time.Now,
	}
}

// ParseFeed parses an RSS, Atom or JSON feed document into articles for source.
// Items without a link or guid are skipped since url identifies an article.
func (m *Mapper) ParseFeed(ctx context.Context, r io.Reader, source models.Source) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}

	articles := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if a, ok := m.ToArticle(item, source); ok {
			articles = append(articles, a)
		}
	}
	return articles, nil
}

// ToArticle maps one item. It reports false when the item has no url.
func (m *Mapper) ToArticle(item *gofeed.Item, source models.Source) (models.Article, bool) {
	url := firstNonEmpty(item.Link, item.GUID)
	if url == "" {
		return models.Article{}, false
	}

	description := m.text(item.Description)
	content := firstNonEmpty(m.text(item.Content), description)

	return models.Article{
		SourceID:    source.ID,
		Title:       strings.TrimSpace(item.Title),
		Description: description,
		Content:     content,
		URL:         strings.TrimSpace(url),
		PubDate:     m.pubDate(item),
		Author:      author(item),
		Categories:  categories(item.Categories),
	}, true
}

// text converts an HTML fragment to Markdown. Plain text passes through and
// the raw input is kept when conversion fails.
func (m *Mapper) text(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	out, err := m.converter.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(out)
}

func (m *Mapper) pubDate(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return m.now().UTC()
	}
}

func author(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, p := range item.Authors {
		if p != nil && p.Name != "" {
			return p.Name
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	return ""
}

func categories(cats []string) string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, ",")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
