// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package main is the entry point for the Newsrank server.

Newsrank stores articles imported from RSS, Atom and JSON feeds, learns each
user's interests from like/dislike feedback and serves ranked, diversified
recommendation pages over HTTP.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("newsrank")
	├── DataSupervisor ("data-layer")
	│   └── cache-eviction (expired and overflow sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── event-router (feedback.recorded -> cache invalidation)
	└── APISupervisor ("api-layer")
	    └── http-server (chi router)

Component initialization order:

 1. .env file (optional) and configuration (Koanf v2)
 2. Logging: zerolog, with a slog bridge for the supervisor
 3. Database: DuckDB or SQLite, schema migrated on open
 4. Default feed sources (FEEDS_SEED_DEFAULTS)
 5. Embedding provider and keyword/analysis extractor
 6. Recommendation cache on the configured backend
 7. Recommendation engine
 8. Event bus (Go channel or NATS JetStream) with the invalidation router
 9. Feedback processor and feed importer
 10. HTTP handlers, middleware and server

# Usage

	export DB_PATH=/data/newsrank.duckdb
	export EMBEDDING_PROVIDER=openai
	export EMBEDDING_API_KEY=sk-...
	./newsrank

SIGINT and SIGTERM stop the supervisor tree; the HTTP server drains
in-flight requests before the event bus, cache store and database close.
*/
package main
