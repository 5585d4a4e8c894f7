// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package testinfra provides test infrastructure for unit and integration tests.
//
// # Mock Provider Server
//
// MockProviderServer is an httptest server that records requests and returns
// canned responses. Embedding, LLM and feed ingestion tests point their
// clients at it:
//
//	srv := testinfra.NewMockProviderServer(t)
//	srv.Respond(http.StatusOK, map[string]any{"data": []any{...}})
//	client := embedding.NewOpenAIProvider(cfg.WithBaseURL(srv.URL()))
//
// # Containers
//
// Files built with the integration tag use testcontainers-go to start Redis
// and NATS:
//
//	go test -tags integration ./internal/cache/... ./internal/eventprocessor/...
//
// These tests require Docker and are skipped gracefully if Docker is
// unavailable. First runs may need to pull container images.
package testinfra
