// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package quota

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/claviger/internal/config"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/metrics"
)

//go:embed quotacheck.lua
var quotaCheckScript string

// pingTimeout bounds the startup reachability probe.
const pingTimeout = 5 * time.Second

// Redis is a Checker backed by a Redis instance with the RedisBloom
// module. All per-user state lives in three keys updated atomically by
// one Lua script, so concurrent checks for the same user cannot race.
type Redis struct {
	client        *redis.Client
	script        *redis.Script
	quotaLimit    int64
	windowSeconds int64
}

// NewRedis creates a Redis-backed quota checker from configuration.
// The store is pinged once at startup; an unreachable store is logged
// but not fatal, since every check error fails open at the matcher.
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("redis quota checker requires redis.url")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis.url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn().
			Err(err).
			Msg("Quota store unreachable at startup, checks will fail open until it recovers")
	} else {
		logging.Info().
			Int64("quota_limit", cfg.QuotaLimit).
			Int("window_days", cfg.WindowDays).
			Msg("Quota store connected")
	}

	return &Redis{
		client:        client,
		script:        redis.NewScript(quotaCheckScript),
		quotaLimit:    cfg.QuotaLimit,
		windowSeconds: int64(cfg.Window() / time.Second),
	}, nil
}

// Check runs the quota script for one user/document pair. Script.Run
// uses EVALSHA and falls back to EVAL when the script is not cached.
func (r *Redis) Check(ctx context.Context, userID, docID string) (Status, error) {
	start := time.Now()

	result, err := r.script.Run(ctx, r.client, quotaKeys(userID),
		docID, r.quotaLimit, time.Now().Unix(), r.windowSeconds).Result()
	if err != nil {
		metrics.RecordQuotaCheck("error", time.Since(start))
		return "", fmt.Errorf("quota check for user %s failed: %w", logging.SanitizeUserID(userID), err)
	}

	allowed, err := parseAllowed(result)
	if err != nil {
		metrics.RecordQuotaCheck("error", time.Since(start))
		return "", err
	}

	if allowed {
		metrics.RecordQuotaCheck(string(StatusBelowQuota), time.Since(start))
		return StatusBelowQuota, nil
	}

	metrics.RecordQuotaCheck(string(StatusQuotaReached), time.Since(start))
	return StatusQuotaReached, nil
}

// Ping probes the quota store, for readiness reporting.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// String identifies the checker in startup logs. The connection URL is
// omitted because it may carry credentials.
func (r *Redis) String() string {
	return fmt.Sprintf("RedisQuotaChecker(limit=%d, window=%s)",
		r.quotaLimit, time.Duration(r.windowSeconds)*time.Second)
}

// quotaKeys returns the bloom, counter and window-anchor keys for one user.
func quotaKeys(userID string) []string {
	return []string{
		"user:" + userID + ":bloom",
		"user:" + userID + ":count",
		"user:" + userID + ":first_access",
	}
}

// parseAllowed interprets the script's {allowed} reply.
func parseAllowed(result interface{}) (bool, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) == 0 {
		return false, fmt.Errorf("unexpected quota script reply: %T", result)
	}

	allowed, ok := values[0].(int64)
	if !ok {
		return false, fmt.Errorf("unexpected quota script reply element: %T", values[0])
	}

	return allowed == 1, nil
}
