// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/newsrank/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Backend != BackendGoChannel {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendGoChannel)
	}
	if cfg.StreamName != "FEEDBACK" {
		t.Errorf("StreamName = %q", cfg.StreamName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestFromAppConfig(t *testing.T) {
	t.Parallel()

	cfg := FromAppConfig(config.EventsConfig{
		Backend:      "nats",
		NATSURL:      "nats://nats:4222",
		QueueGroup:   "workers",
		RetryCount:   7,
		RetryBackoff: 250 * time.Millisecond,
		CloseTimeout: 3 * time.Second,
	})

	if cfg.Backend != BackendNATS || cfg.URL != "nats://nats:4222" {
		t.Errorf("connection = %q %q", cfg.Backend, cfg.URL)
	}
	if cfg.QueueGroup != "workers" || cfg.DurableName != "workers" {
		t.Errorf("queue group = %q, durable = %q", cfg.QueueGroup, cfg.DurableName)
	}
	if cfg.RetryMaxRetries != 7 || cfg.RetryInitialInterval != 250*time.Millisecond {
		t.Errorf("retry = %d %v", cfg.RetryMaxRetries, cfg.RetryInitialInterval)
	}
	if cfg.CloseTimeout != 3*time.Second {
		t.Errorf("CloseTimeout = %v", cfg.CloseTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"gochannel", func(*Config) {}, false},
		{"nats", func(c *Config) { c.Backend = BackendNATS }, false},
		{"unknown backend", func(c *Config) { c.Backend = "kafka" }, true},
		{"nats without url", func(c *Config) { c.Backend = BackendNATS; c.URL = "" }, true},
		{"nats without stream", func(c *Config) { c.Backend = BackendNATS; c.StreamName = "" }, true},
		{"nats zero max deliver", func(c *Config) { c.Backend = BackendNATS; c.MaxDeliver = 0 }, true},
		{"gochannel ignores nats fields", func(c *Config) { c.URL = ""; c.StreamName = "" }, false},
		{"negative retries", func(c *Config) { c.RetryMaxRetries = -1 }, true},
		{"zero close timeout", func(c *Config) { c.CloseTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}
