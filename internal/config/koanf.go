// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/claviger/config.yaml",
	"/etc/claviger/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CLAVIGER_CONFIG"

// defaultConfig returns a Config struct with all default values. Defaults
// are applied first, then overridden by config file and env vars.
//
// No extractor prerequisite (secrets, paths, connection URLs) has a
// default: with a bare config every strategy that needs one resolves to
// the null variant, and every decision it guards denies.
func defaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "json",
		StaticFilesPath:   "",
		StaticSecret:      "",
		CookieName:        "",
		JWTSecret:         "",
		JWTVerifyAudience: true,
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Solr: SolrConfig{
			BaseURL:               "",
			Username:              "",
			Password:              "",
			ProxyURL:              "",
			ContentItemCollection: "",
			Timeout:               30 * time.Second,
			MaxConnections:        100,
			MaxKeepalive:          20,
			MaxRPS:                0, // 0 = unlimited
		},
		Redis: RedisConfig{
			URL:        "",
			QuotaLimit: 200000,
			WindowDays: 30,
		},
		Probe: ProbeConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 1000,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// CLAVIGER_JWT_SECRET -> jwt_secret
	// CLAVIGER_SOLR_BASE_URL -> solr.base_url
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"probe.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Only CLAVIGER_* variables are recognized; everything else is skipped so
// that unrelated environment variables never pollute the config.
//
// Examples:
//   - CLAVIGER_LOG_LEVEL -> log_level
//   - CLAVIGER_JWT_SECRET -> jwt_secret
//   - CLAVIGER_SOLR_BASE_URL -> solr.base_url
//   - CLAVIGER_REDIS_QUOTA_LIMIT -> redis.quota_limit
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Logging mappings
		"claviger_log_level":  "log_level",
		"claviger_log_format": "log_format",

		// Extractor prerequisites
		"claviger_static_files_path":   "static_files_path",
		"claviger_static_secret":       "static_secret",
		"claviger_cookie_name":         "cookie_name",
		"claviger_jwt_secret":          "jwt_secret",
		"claviger_jwt_verify_audience": "jwt_verify_audience",

		// Server mappings
		"claviger_server_addr":             "server.addr",
		"claviger_server_read_timeout":     "server.read_timeout",
		"claviger_server_write_timeout":    "server.write_timeout",
		"claviger_server_shutdown_timeout": "server.shutdown_timeout",

		// Solr mappings
		"claviger_solr_base_url":                "solr.base_url",
		"claviger_solr_username":                "solr.username",
		"claviger_solr_password":                "solr.password",
		"claviger_solr_proxy_url":               "solr.proxy_url",
		"claviger_solr_content_item_collection": "solr.content_item_collection",
		"claviger_solr_timeout":                 "solr.timeout",
		"claviger_solr_max_connections":         "solr.max_connections",
		"claviger_solr_max_keepalive":           "solr.max_keepalive",
		"claviger_solr_max_rps":                 "solr.max_rps",

		// Redis mappings
		"claviger_redis_url":         "redis.url",
		"claviger_redis_quota_limit": "redis.quota_limit",
		"claviger_redis_window_days": "redis.window_days",

		// Probe mappings
		"claviger_probe_cors_origins":        "probe.cors_origins",
		"claviger_probe_rate_limit_requests": "probe.rate_limit_requests",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	return ""
}
