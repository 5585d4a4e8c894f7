// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/newsrank/internal/config"
	"github.com/tomtom215/newsrank/internal/metrics"
	"github.com/tomtom215/newsrank/internal/models"
	"github.com/tomtom215/newsrank/internal/resilience"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-3.5-turbo"

	keywordSystemPrompt  = "Extract 3-5 key topics/keywords from the text. Return only a JSON array of strings."
	analysisSystemPrompt = "You are a news analysis assistant. Respond only with valid JSON."
)

// OpenAI calls an OpenAI-compatible chat completions endpoint. Calls are
// rate limited and pass through a circuit breaker.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
	breaker *resilience.Breaker[string]
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAI creates a chat client. A non-positive RequestsPerSecond disables
// rate limiting.
func NewOpenAI(cfg config.LLMConfig) *OpenAI {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &OpenAI{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewBreaker[string]("llm-openai", cfg.Breaker),
	}
}

// ExtractKeywords asks the model for 3-5 keywords as a JSON array.
func (o *OpenAI) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	content, err := o.complete(ctx, "keywords", []chatMessage{
		{Role: "system", Content: keywordSystemPrompt},
		{Role: "user", Content: truncateRunes(text, MaxPromptRunes)},
	}, 100)
	if err != nil {
		return nil, err
	}

	var keywords []string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &keywords); err != nil {
		return nil, fmt.Errorf("keyword response is not a JSON array: %w", err)
	}
	out := keywords[:0]
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out, nil
}

// Analyze asks the model for topics, sentiment, importance (0-10) and a short
// summary as a JSON object.
func (o *OpenAI) Analyze(ctx context.Context, article models.Article) (Analysis, error) {
	prompt := fmt.Sprintf(`Analyze the following news article and extract key information:

Title: %s
Description: %s
Content: %s...

Please provide:
1. Main topics (max 5 keywords)
2. Sentiment (positive/negative/neutral)
3. Importance score (0-10)
4. Brief summary (max 50 words)

Format the response as JSON with keys topics, sentiment, importance and summary.`,
		article.Title, article.Description, truncateRunes(article.Content, MaxPromptRunes))

	content, err := o.complete(ctx, "analyze", []chatMessage{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: prompt},
	}, 300)
	if err != nil {
		return Analysis{}, err
	}

	var a Analysis
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &a); err != nil {
		return Analysis{}, fmt.Errorf("analysis response is not JSON: %w", err)
	}
	if len(a.Topics) > MaxKeywords {
		a.Topics = a.Topics[:MaxKeywords]
	}
	return a.normalize(article), nil
}

func (o *OpenAI) complete(ctx context.Context, op string, messages []chatMessage, maxTokens int) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	content, err := o.breaker.Execute(func() (string, error) {
		return o.post(ctx, chatRequest{
			Model:       o.model,
			Messages:    messages,
			Temperature: 0.3,
			MaxTokens:   maxTokens,
		})
	})
	metrics.RecordProviderCall("openai", op, time.Since(start), err)
	if resilience.IsRejected(err) {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return content, err
}

func (o *OpenAI) post(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("openai chat: status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai chat: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai chat: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
