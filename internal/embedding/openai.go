// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/metrics"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "text-embedding-3-small"
)

// OpenAI calls an OpenAI-compatible /embeddings endpoint.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type openAIEmbeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates a client. BaseURL defaults to the public API and should
// include the version path (".../v1").
func NewOpenAI(cfg config.EmbeddingConfig) *OpenAI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
	}
}

func (o *OpenAI) Model() string { return o.model }

// Embed returns the embedding of text.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	text = Truncate(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	start := time.Now()
	vec, err := o.embed(ctx, text)
	metrics.RecordProviderCall("openai", "embed", time.Since(start), err)
	return vec, err
}

func (o *OpenAI) embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(openAIEmbeddingRequest{Input: text, Model: o.model})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	var parsed openAIEmbeddingResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && parsed.Error != nil {
			return nil, fmt.Errorf("openai embeddings: status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("openai embeddings: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", decodeErr)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return parsed.Data[0].Embedding, nil
}
