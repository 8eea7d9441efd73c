// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/claviger/internal/validation"
)

// Validate checks that the loaded configuration is complete and
// consistent. Tag-level rules (ranges, oneof sets) run through the shared
// validator; cross-field rules that tags cannot express follow.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateSolr(); err != nil {
		return err
	}

	return c.validateRedis()
}

// validateSolr rejects partial index configuration. Running with a
// half-configured index would silently swap the content-item extractor
// for the null variant and deny everything it guards.
func (c *Config) validateSolr() error {
	if c.Solr.partiallyConfigured() {
		var missing []string
		if c.Solr.BaseURL == "" {
			missing = append(missing, "solr.base_url")
		}
		if c.Solr.ContentItemCollection == "" {
			missing = append(missing, "solr.content_item_collection")
		}
		if c.Solr.Username == "" {
			missing = append(missing, "solr.username")
		}
		if c.Solr.Password == "" {
			missing = append(missing, "solr.password")
		}
		return fmt.Errorf("partial solr configuration: missing %s (set all of base_url, content_item_collection, username, password, or none)", strings.Join(missing, ", "))
	}

	if c.Solr.BaseURL != "" {
		if err := validateBaseURL(c.Solr.BaseURL, "solr.base_url"); err != nil {
			return err
		}
	}

	if c.Solr.ProxyURL != "" {
		if err := validateBaseURL(c.Solr.ProxyURL, "solr.proxy_url"); err != nil {
			return err
		}
	}

	return nil
}

// validateRedis checks the quota store URL scheme. Full URL parsing
// happens when the client connects; this catches obvious mistakes at
// startup.
func (c *Config) validateRedis() error {
	if c.Redis.URL == "" {
		return nil
	}

	parsed, err := url.Parse(c.Redis.URL)
	if err != nil {
		return fmt.Errorf("redis.url failed to parse: %w", err)
	}

	switch parsed.Scheme {
	case "redis", "rediss", "unix":
	default:
		return fmt.Errorf("redis.url scheme must be redis, rediss, or unix, got: %s", parsed.Scheme)
	}

	if parsed.Scheme != "unix" && parsed.Host == "" {
		return fmt.Errorf("redis.url host is required (e.g., redis://localhost:6379/0)")
	}

	return nil
}

// validateBaseURL validates an HTTP/HTTPS service URL. Unlike a bare host
// check, a path component is allowed: Solr base URLs conventionally end
// in /solr.
func validateBaseURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
