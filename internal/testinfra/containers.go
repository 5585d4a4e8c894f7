// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRedisImage is the Redis image used for cache integration tests.
	DefaultRedisImage = "redis:7-alpine"

	// DefaultNATSImage is the NATS image used for event bus integration tests.
	DefaultNATSImage = "nats:2.10-alpine"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "info")
	return cmd.Run() == nil
}

// CleanupContainer is a helper for deferred container cleanup that logs errors.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	}
}

// Container is a started service container and the URL clients dial.
type Container struct {
	testcontainers.Container
	URL string
}

// Option configures a container.
type Option func(*containerConfig)

type containerConfig struct {
	image        string
	startTimeout time.Duration
}

// WithImage overrides the default image.
func WithImage(image string) Option {
	return func(c *containerConfig) {
		c.image = image
	}
}

// WithStartTimeout sets how long to wait for the service to accept connections.
func WithStartTimeout(timeout time.Duration) Option {
	return func(c *containerConfig) {
		c.startTimeout = timeout
	}
}

// NewRedisContainer starts Redis and returns a redis:// URL for database 0.
//
//	redis, err := testinfra.NewRedisContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, redis.Container)
//	store, err := cache.OpenRedisStore(ctx, redis.URL, "test:")
func NewRedisContainer(ctx context.Context, opts ...Option) (*Container, error) {
	return start(ctx, "redis", "6379", "redis://%s:%s/0",
		wait.ForLog("Ready to accept connections"), DefaultRedisImage, opts)
}

// NewNATSContainer starts a JetStream-enabled NATS server and returns a nats:// URL.
func NewNATSContainer(ctx context.Context, opts ...Option) (*Container, error) {
	return start(ctx, "nats", "4222", "nats://%s:%s",
		wait.ForLog("Server is ready"), DefaultNATSImage, opts, "-js")
}

func start(ctx context.Context, name, port, urlFormat string, ready wait.Strategy, image string, opts []Option, cmd ...string) (*Container, error) {
	cfg := &containerConfig{
		image:        image,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{port + "/tcp"},
		Cmd:          cmd,
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(port+"/tcp"),
			ready,
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s container: %w", name, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &Container{
		Container: container,
		URL:       fmt.Sprintf(urlFormat, host, mapped.Port()),
	}, nil
}
