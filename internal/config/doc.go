// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

/*
Package config provides centralized configuration management for Claviger.

Configuration is loaded with Koanf v2 from three layered sources, later
layers overriding earlier ones:

 1. Built-in defaults
 2. Optional YAML config file (config.yaml, or CLAVIGER_CONFIG)
 3. CLAVIGER_* environment variables

# Feature switches

The sidecar has no explicit enable flags. A strategy comes up live when
its prerequisites are configured and degrades to the null variant (which
denies) when they are not:

  - static_files_path enables the manifest-with-secret extractor
  - static_secret enables the static-secret extractor
  - jwt_secret enables the cookie-bitmap and cookie-user-id extractors
  - solr.base_url + solr.content_item_collection + solr.username +
    solr.password together enable the content-item-image-bitmap
    extractor; a partial set is a startup error
  - redis.url enables the remote quota checker

# Environment Variables

Every key maps to one CLAVIGER_* variable, for example:

	CLAVIGER_LOG_LEVEL            log_level           (default: info)
	CLAVIGER_LOG_FORMAT           log_format          (json or console)
	CLAVIGER_SERVER_ADDR          server.addr         (default: :8000)
	CLAVIGER_JWT_SECRET           jwt_secret
	CLAVIGER_SOLR_BASE_URL        solr.base_url
	CLAVIGER_REDIS_URL            redis.url
	CLAVIGER_REDIS_QUOTA_LIMIT    redis.quota_limit   (default: 200000)
	CLAVIGER_REDIS_WINDOW_DAYS    redis.window_days   (default: 30)

# Validation

Load validates the assembled configuration before returning it: tag-level
rules (allowed log levels, positive quota limits) through the shared
go-playground validator, plus cross-field rules such as rejecting a
partial Solr configuration.

Thread Safety: the returned Config is immutable and safe for concurrent
reads.
*/
package config
