// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/metrics"
)

const defaultCohereModel = "embed-english-v3.0"

// Cohere embeds text with the Cohere V2 Embed API.
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere creates a Cohere client. A non-empty BaseURL overrides the API
// host, which tests point at a local server.
func NewCohere(cfg config.EmbeddingConfig) *Cohere {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = defaultCohereModel
	}

	httpClient := &http.Client{Timeout: timeout}
	var client *cohereclient.Client
	if cfg.BaseURL != "" {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
			cohereclient.WithBaseURL(cfg.BaseURL),
		)
	} else {
		client = cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
		)
	}

	return &Cohere{client: client, model: model}
}

func (c *Cohere) Model() string { return c.model }

// Embed returns the float embedding of text, requested as a search document.
func (c *Cohere) Embed(ctx context.Context, text string) ([]float64, error) {
	text = Truncate(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	vec, err := c.embed(ctx, text)
	metrics.RecordProviderCall("cohere", "embed", time.Since(start), err)
	return vec, err
}

func (c *Cohere) embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          []string{text},
		Model:          c.model,
		InputType:      cohere.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || len(resp.Embeddings.Float) == 0 {
		return nil, errors.New("cohere embed returned no float embeddings")
	}
	return resp.Embeddings.Float[0], nil
}
