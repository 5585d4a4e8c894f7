// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package embedding turns article and interest text into vectors.

Providers:
  - OpenAI: any OpenAI-compatible POST {base}/embeddings endpoint
  - Cohere: the Cohere V2 Embed API via cohere-go, float embeddings
  - Noop: always returns ErrUnavailable; used when embeddings are disabled

New wraps network providers in a Breaker so a failing API stops being called
for the breaker's open timeout. Callers treat every error as "no vector": the
vector recall channel then contributes zero candidates.
*/
package embedding
