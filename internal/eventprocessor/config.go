// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/newsrank/internal/config"
)

// Backends.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// Config holds event bus and router settings.
type Config struct {
	// Backend is "gochannel" or "nats".
	Backend string

	// NATS connection
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration

	// JetStream
	StreamName     string
	StreamMaxAge   time.Duration
	QueueGroup     string
	DurableName    string
	AckWaitTimeout time.Duration
	MaxDeliver     int

	// GoChannel
	OutputChannelBuffer int64

	// Router
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultConfig returns production defaults using the in-process backend.
func DefaultConfig() Config {
	return Config{
		Backend:              BackendGoChannel,
		URL:                  "nats://127.0.0.1:4222",
		MaxReconnects:        -1,
		ReconnectWait:        2 * time.Second,
		StreamName:           "FEEDBACK",
		StreamMaxAge:         24 * time.Hour,
		QueueGroup:           "newsrank",
		DurableName:          "newsrank",
		AckWaitTimeout:       30 * time.Second,
		MaxDeliver:           5,
		OutputChannelBuffer:  256,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// FromAppConfig derives the bus configuration from the events section.
func FromAppConfig(ec config.EventsConfig) Config {
	cfg := DefaultConfig()
	if ec.Backend != "" {
		cfg.Backend = ec.Backend
	}
	if ec.NATSURL != "" {
		cfg.URL = ec.NATSURL
	}
	if ec.QueueGroup != "" {
		cfg.QueueGroup = ec.QueueGroup
		cfg.DurableName = ec.QueueGroup
	}
	if ec.RetryCount >= 0 {
		cfg.RetryMaxRetries = ec.RetryCount
	}
	if ec.RetryBackoff > 0 {
		cfg.RetryInitialInterval = ec.RetryBackoff
	}
	if ec.CloseTimeout > 0 {
		cfg.CloseTimeout = ec.CloseTimeout
	}
	return cfg
}

// Validate checks the configuration for the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGoChannel:
	case BackendNATS:
		if c.URL == "" {
			return fmt.Errorf("%w: NATS URL is required", ErrInvalidConfig)
		}
		if c.StreamName == "" {
			return fmt.Errorf("%w: stream name is required", ErrInvalidConfig)
		}
		if c.MaxDeliver <= 0 {
			return fmt.Errorf("%w: max deliver must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("%w: retry count must not be negative", ErrInvalidConfig)
	}
	if c.CloseTimeout <= 0 {
		return fmt.Errorf("%w: close timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
