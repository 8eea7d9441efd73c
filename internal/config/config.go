// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package config

import (
	"time"
)

// Config holds all sidecar configuration loaded from the YAML file and
// environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: CLAVIGER_* overrides with highest priority
//
// Most settings double as feature switches. The presence of a secret or a
// connection target decides which extractors and matchers come up live at
// startup; everything absent degrades to the null strategy, which denies.
//
//	static_files_path          -> manifest-with-secret extractor
//	static_secret              -> static-secret extractor
//	jwt_secret                 -> cookie-bitmap and cookie-user-id extractors
//	solr.* (all four required) -> content-item-image-bitmap extractor
//	redis.url                  -> remote quota checker
//
// Thread Safety: Config is immutable after Load and safe for concurrent
// read access.
type Config struct {
	LogLevel  string `koanf:"log_level" validate:"oneof=trace debug info warn error fatal"`
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	// StaticFilesPath is the directory that holds protected resources and
	// their sibling {stem}_manifest.json files.
	StaticFilesPath string `koanf:"static_files_path"`

	// StaticSecret is the shared secret served by the static-secret
	// extractor on the resource side of a decision.
	StaticSecret string `koanf:"static_secret"`

	// CookieName is the cookie the signed-JWT extractors read.
	CookieName string `koanf:"cookie_name"`

	// JWTSecret is the HS256 signing secret for cookie tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// JWTVerifyAudience controls audience verification for cookie tokens.
	// When true, the expected audience is reconstructed from the
	// x-forwarded-proto/host/port headers of each request.
	JWTVerifyAudience bool `koanf:"jwt_verify_audience"`

	Server ServerConfig `koanf:"server"`
	Solr   SolrConfig   `koanf:"solr"`
	Redis  RedisConfig  `koanf:"redis"`
	Probe  ProbeConfig  `koanf:"probe"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SolrConfig holds connection settings for the rights index. The
// content-item extractor is enabled only when base_url, collection,
// username and password are all present; a partial set is a startup
// error.
type SolrConfig struct {
	BaseURL               string        `koanf:"base_url"`
	Username              string        `koanf:"username"`
	Password              string        `koanf:"password"`
	ProxyURL              string        `koanf:"proxy_url"`
	ContentItemCollection string        `koanf:"content_item_collection"`
	Timeout               time.Duration `koanf:"timeout"`
	MaxConnections        int           `koanf:"max_connections"`
	MaxKeepalive          int           `koanf:"max_keepalive"`
	MaxRPS                float64       `koanf:"max_rps"`
}

// Enabled reports whether the index-backed extractor has everything it
// needs: base URL, collection, username and password.
func (c *SolrConfig) Enabled() bool {
	return c.BaseURL != "" && c.ContentItemCollection != "" && c.Username != "" && c.Password != ""
}

// partiallyConfigured reports whether some but not all of the four
// required settings are present. Callers treat this as a misconfiguration
// rather than silently running with the null extractor.
func (c *SolrConfig) partiallyConfigured() bool {
	any := c.BaseURL != "" || c.ContentItemCollection != "" || c.Username != "" || c.Password != ""
	return any && !c.Enabled()
}

// RedisConfig holds connection and quota window settings for the remote
// quota checker. The checker requires the RedisBloom module.
type RedisConfig struct {
	// URL is a redis:// connection URL. Empty disables the quota checker.
	URL string `koanf:"url"`

	// QuotaLimit is the number of distinct documents a user may access
	// within one window.
	QuotaLimit int64 `koanf:"quota_limit" validate:"min=1"`

	// WindowDays is the rolling window length in days.
	WindowDays int `koanf:"window_days" validate:"min=1"`
}

// Enabled reports whether the remote quota checker is configured.
func (c *RedisConfig) Enabled() bool {
	return c.URL != ""
}

// Window returns the quota window as a duration.
func (c *RedisConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// ProbeConfig holds settings for the non-decision surface: health probes
// and the metrics endpoint.
type ProbeConfig struct {
	// CORSOrigins is the allowed origin list for probe endpoints.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests caps probe requests per client IP per minute.
	RateLimitRequests int `koanf:"rate_limit_requests" validate:"min=1"`
}

// ManifestExtractorEnabled reports whether the manifest-with-secret
// extractor has its prerequisite directory configured.
func (c *Config) ManifestExtractorEnabled() bool {
	return c.StaticFilesPath != ""
}

// StaticSecretExtractorEnabled reports whether the static-secret
// extractor has its secret configured.
func (c *Config) StaticSecretExtractorEnabled() bool {
	return c.StaticSecret != ""
}

// CookieExtractorsEnabled reports whether the signed-cookie extractors
// have their signing secret configured.
func (c *Config) CookieExtractorsEnabled() bool {
	return c.JWTSecret != ""
}

// QuotaMatcherEnabled reports whether the quota matcher can run for real:
// it needs both the remote store and the cookie extractors that identify
// the user.
func (c *Config) QuotaMatcherEnabled() bool {
	return c.Redis.Enabled() && c.CookieExtractorsEnabled()
}
