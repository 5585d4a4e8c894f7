// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package database

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/newsrank/internal/logging"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDatabaseClosed is returned after Close.
	ErrDatabaseClosed = errors.New("database is closed")
)

// IsTransient reports whether err is a store failure worth degrading around
// rather than surfacing: busy or locked files, timeouts, transaction
// conflicts and lost connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	"database is locked",
	"database is busy",
	"sqlite_busy",
	"database disk image is malformed",
	"transaction conflict",
	"conflict on update",
	"could not set lock on file",
	"connection refused",
	"bad connection",
	"database is closed",
	"i/o timeout",
}

// isTransactionConflict matches DuckDB optimistic concurrency failures.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update")
}

// isUniqueConstraintError matches both DuckDB and SQLite wording.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "constraint failed: unique")
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// closeRows closes a result set and logs a failure.
func closeRows(closer io.Closer, what string) {
	if err := closer.Close(); err != nil {
		logging.Warn().Err(err).Str("rows", what).Msg("Failed to close rows")
	}
}
