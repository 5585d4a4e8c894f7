// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler that writes through zerolog.
//
// The supervisor tree (via sutureslog) and the watermill event router only
// accept a *slog.Logger. Routing them through this handler keeps a single
// output stream, so their lines carry the same format, level filter and
// caller settings as the rest of newsrank.
//
// Groups opened with WithGroup become dotted key prefixes, so
// logger.WithGroup("router").Info("up", "topic", "feedback.recorded")
// logs router.topic=feedback.recorded.
//
// Usage:
//
//	slogger := slog.New(logging.NewSlogHandler())
//	slogger.Info("supervisor started", "services", 3)
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	groups []string
}

// NewSlogHandler wraps the global logger as it is at call time. Call it
// after Init so the configured level and format apply.
func NewSlogHandler() *SlogHandler {
	return &SlogHandler{logger: Logger()}
}

// NewSlogLogger returns a *slog.Logger backed by the global zerolog logger.
// It is what cmd/server hands to the supervisor tree:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}

// Enabled implements slog.Handler. A record passes only when both the
// global zerolog level and the wrapped logger's own level allow it.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return toZerologLevel(level) >= zerolog.GlobalLevel() && toZerologLevel(level) >= h.logger.GetLevel()
}

// Handle implements slog.Handler. Handler attributes are written first,
// then the record's own attributes under the currently open groups. Error
// values are logged with AnErr so they render like zerolog's Err field.
//
//nolint:gocritic // slog.Record is passed by value per the slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	ev := h.logger.WithLevel(toZerologLevel(r.Level))
	for _, a := range h.attrs {
		ev = appendAttr(ev, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = appendAttr(ev, h.groups, a)
		return true
	})
	ev.Msg(r.Message)
	return nil
}

// WithAttrs implements slog.Handler. The receiver is not modified.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// Attributes keep the groups that were open when they were added.
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Key = qualify(h.groups, a.Key)
		merged = append(merged, a)
	}
	return &SlogHandler{logger: h.logger, attrs: merged, groups: h.groups}
}

// WithGroup implements slog.Handler. An empty name returns h unchanged,
// as slog.Handler requires.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &SlogHandler{logger: h.logger, attrs: h.attrs, groups: groups}
}

// qualify prefixes key with the open groups, outermost first.
func qualify(groups []string, key string) string {
	for i := len(groups) - 1; i >= 0; i-- {
		key = groups[i] + "." + key
	}
	return key
}

func appendAttr(ev *zerolog.Event, groups []string, a slog.Attr) *zerolog.Event {
	key := qualify(groups, a.Key)

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return ev.Str(key, v.String())
	case slog.KindInt64:
		return ev.Int64(key, v.Int64())
	case slog.KindUint64:
		return ev.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return ev.Float64(key, v.Float64())
	case slog.KindBool:
		return ev.Bool(key, v.Bool())
	case slog.KindDuration:
		return ev.Dur(key, v.Duration())
	case slog.KindTime:
		return ev.Time(key, v.Time())
	case slog.KindGroup:
		nested := append(append([]string(nil), groups...), a.Key)
		if a.Key == "" {
			nested = groups
		}
		for _, ga := range v.Group() {
			ev = appendAttr(ev, nested, ga)
		}
		return ev
	default:
		if err, ok := v.Any().(error); ok {
			return ev.AnErr(key, err)
		}
		return ev.Interface(key, v.Any())
	}
}

// toZerologLevel maps slog levels, including the in-between custom ones,
// down to the nearest zerolog level.
func toZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
