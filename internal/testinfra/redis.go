// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultRedisStackImage bundles Redis with the RedisBloom module,
	// which the quota script requires.
	DefaultRedisStackImage = "redis/redis-stack-server:latest"

	// DefaultRedisPort is the standard Redis port.
	DefaultRedisPort = "6379"
)

// RedisStackContainer represents a running Redis Stack container for testing.
type RedisStackContainer struct {
	testcontainers.Container
	URL string
}

// RedisStackOption configures the Redis Stack container.
type RedisStackOption func(*redisStackConfig)

type redisStackConfig struct {
	image        string
	startTimeout time.Duration
}

// WithRedisStackImage sets a custom Redis Stack Docker image.
func WithRedisStackImage(image string) RedisStackOption {
	return func(c *redisStackConfig) {
		c.image = image
	}
}

// WithRedisStartTimeout sets the timeout for waiting for Redis to start.
func WithRedisStartTimeout(timeout time.Duration) RedisStackOption {
	return func(c *redisStackConfig) {
		c.startTimeout = timeout
	}
}

// NewRedisStackContainer creates and starts a Redis Stack container.
//
// Example:
//
//	ctx := context.Background()
//	store, err := NewRedisStackContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer store.Terminate(ctx)
//
//	// Use store.URL as the redis.url config value
func NewRedisStackContainer(ctx context.Context, opts ...RedisStackOption) (*RedisStackContainer, error) {
	cfg := &redisStackConfig{
		image:        DefaultRedisStackImage,
		startTimeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultRedisPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(DefaultRedisPort+"/tcp"),
			wait.ForLog("Ready to accept connections"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis stack container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, DefaultRedisPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &RedisStackContainer{
		Container: container,
		URL:       fmt.Sprintf("redis://%s:%s/0", host, port.Port()),
	}, nil
}

// Terminate stops and removes the Redis Stack container.
func (c *RedisStackContainer) Terminate(ctx context.Context) error {
	return c.Container.Terminate(ctx)
}
