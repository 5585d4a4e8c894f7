// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

/*
Package ingest imports RSS, Atom and JSON feed documents into the article store.

Feeds are not fetched here. Callers supply the document (the API accepts it
as a request body) and the Importer:

 1. parses it with gofeed, converting HTML descriptions and content to
    Markdown text with html-to-markdown
 2. inserts the articles, ignoring urls that are already stored
 3. scores each new article with the analyzer's importance and embeds it
    with the indexer; failures are logged per article and counted
 4. returns an ImportResult with the found and inserted counts

Item mapping:

  - title: item title
  - description: item description as text
  - content: encoded content, else content, else the description
  - url: link, else guid; items without either are skipped
  - pub date: published, else updated, else the import time
  - author: author name, else the first named author, else dc:creator
  - categories: joined with ","

SeedSources registers the configured default sources on startup.
*/
package ingest
