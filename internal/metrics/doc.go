// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the api package:

	curl http://localhost:3000/metrics

# Available Metrics

Recommendation pipeline:
  - recommendations_total{cache}: requests by cache outcome (hit, miss, bypass, error)
  - recommendation_stage_duration_seconds{stage}: recall, rank, cache_get, cache_put
  - recall_candidates{channel}: candidates per channel per request
  - recall_channel_errors_total{channel}: channel failures degraded to zero candidates
  - ranking_diversity_penalized_total: candidates penalized by diversification

Recommendation cache:
  - recommendation_cache_hits_total{backend}
  - recommendation_cache_misses_total{backend,reason}
  - recommendation_cache_writes_total{backend,result}
  - recommendation_cache_evicted_total{backend,reason}
  - recommendation_cache_eviction_signals_dropped_total

Circuit breakers (embedding and LLM providers):
  - circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_state_transitions_total{name,from_state,to_state}

HTTP:
  - api_requests_total{method,endpoint,status}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total

# Usage

	start := time.Now()
	candidates, err := channel.Recall(ctx, userID)
	metrics.RecordRecallChannel("tag", len(candidates), err)
	metrics.RecordStage("recall", time.Since(start))
*/
package metrics
