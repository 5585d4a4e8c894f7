// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

// Package recommend implements the two-stage news recommendation pipeline.
//
// # Architecture
//
// A request flows through four stages:
//
//   - Cache lookup: the full ranked list for (user, options) is read from
//     the recommendation cache unless the request forces a refresh.
//   - Recall: four channels run concurrently and their results are merged
//     by article id. Vector recall uses embedding similarity, tag recall
//     matches interest keywords against categories, collaborative recall
//     uses articles liked by users with overlapping likes, and trending
//     recall scores recent articles by likes and dislikes.
//   - Ranking: each candidate gets relevance, interest, diversity and
//     freshness scores in [0, 1], combined by configured weights. Large
//     lists are then diversified so a few sources or categories cannot
//     fill the top of the feed.
//   - Pagination: the ranked list is written to the cache and sliced into
//     the requested page.
//
// # Failure Handling
//
// A failing recall channel contributes no candidates and the others carry
// on. Failed interest or source preference lookups score as zero. Cache
// failures degrade to a miss on read and to an uncached response on
// write. Only context cancellation fails a request.
//
// # Usage
//
//	cfg := recommend.FromAppConfig(appCfg)
//	engine, err := recommend.NewEngine(cfg, db, vectorService, recCache)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    UserID:   "alice",
//	    Page:     1,
//	    PageSize: 20,
//	})
//
// # Thread Safety
//
// The engine holds no mutable state beyond its single-flight group and is
// safe for concurrent use.
package recommend
