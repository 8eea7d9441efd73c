// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

/*
Package metrics provides Prometheus metrics collection and export for observability.

Decision responses are bare status codes, so these metrics and the structured
logs are the only operational view into what the sidecar decides and why.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Decision Metrics:
  - decisions_total: Authorization verdicts (counter)
    Labels: matcher, client_extractor, resource_extractor, verdict (allow, deny, redirect)
  - decision_duration_seconds: End-to-end decision latency (histogram)
    Labels: matcher

Extractor Metrics:
  - extractions_total: Token extraction outcomes (counter)
    Labels: extractor, outcome (token, empty, error)
  - extraction_duration_seconds: Extraction latency (histogram)
    Labels: extractor

Solr Metrics:
  - solr_query_duration_seconds: Index query latency (histogram)
  - solr_query_errors_total: Failed index queries (counter)
    Labels: error_type (timeout, connection, status, decode, other)

Manifest Metrics:
  - manifest_fetches_total: IIIF manifest fetches (counter)
    Labels: result (ok, miss, error)
  - manifest_fetch_duration_seconds: Manifest fetch latency (histogram)

Quota Metrics:
  - quota_checks_total: Quota check outcomes (counter)
    Labels: outcome (allowed, denied, fail_open)
  - quota_check_duration_seconds: Quota check latency (histogram)

HTTP Metrics:
  - api_requests_total: Total HTTP requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: Active requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Cache Metrics:
  - cache_hits_total, cache_misses_total: Memoization efficiency (counters)
    Labels: cache_type
  - cache_entries: Current cached entries (gauge)
    Labels: cache_type

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge, 0=closed 1=half-open 2=open)
    Labels: name
  - circuit_breaker_requests_total: Requests through the breaker (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

System Metrics:
  - app_info: Version and build information (gauge)
    Labels: version, go_version
  - app_uptime_seconds: Process uptime (gauge)

# Usage

Metrics are package-level and registered automatically via promauto:

	metrics.RecordDecision("bitwise-and", "cookie-bitmap", "content-item-image-bitmap", "allow", elapsed)
	metrics.RecordSolrQuery(elapsed, err)

# Cardinality

Every label value comes from a fixed set (registry names, verdicts, coarse
error types). Raw identifiers, URLs, and error strings never become labels.
*/
package metrics
