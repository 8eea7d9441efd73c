// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the authorization decision path:
// - Decision verdicts and latency per strategy combination
// - Extractor outcomes
// - Solr query performance and memoization efficiency
// - Quota check outcomes
// - Circuit breaker state
// - HTTP surface latency and throughput

var (
	// Decision Metrics
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"matcher", "client_extractor", "resource_extractor", "verdict"},
	)

	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"matcher"},
	)

	// Extractor Metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total number of token extractions",
		},
		[]string{"extractor", "outcome"}, // outcome: "token", "empty", "error"
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "Duration of token extractions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"extractor"},
	)

	// Solr Query Metrics
	SolrQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solr_query_duration_seconds",
			Help:    "Duration of Solr queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SolrQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solr_query_errors_total",
			Help: "Total number of Solr query errors",
		},
		[]string{"error_type"}, // "timeout", "connection", "status", "decode", "other"
	)

	// Manifest Fetch Metrics
	ManifestFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manifest_fetches_total",
			Help: "Total number of IIIF manifest fetches",
		},
		[]string{"result"}, // "ok", "miss", "error"
	)

	ManifestFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manifest_fetch_duration_seconds",
			Help:    "Duration of IIIF manifest fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Quota Metrics
	QuotaChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Total number of quota checks",
		},
		[]string{"outcome"}, // "allowed", "denied", "fail_open"
	)

	QuotaCheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quota_check_duration_seconds",
			Help:    "Duration of quota checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "solr_query"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDecision records the verdict and duration of one authorization decision.
func RecordDecision(matcher, clientExtractor, resourceExtractor, verdict string, duration time.Duration) {
	DecisionsTotal.WithLabelValues(matcher, clientExtractor, resourceExtractor, verdict).Inc()
	DecisionDuration.WithLabelValues(matcher).Observe(duration.Seconds())
}

// RecordExtraction records the outcome and duration of one token extraction.
func RecordExtraction(extractor, outcome string, duration time.Duration) {
	ExtractionsTotal.WithLabelValues(extractor, outcome).Inc()
	ExtractionDuration.WithLabelValues(extractor).Observe(duration.Seconds())
}

// RecordSolrQuery records a Solr query metric.
func RecordSolrQuery(duration time.Duration, err error) {
	SolrQueryDuration.Observe(duration.Seconds())
	if err != nil {
		SolrQueryErrors.WithLabelValues(classifyError(err)).Inc()
	}
}

// RecordManifestFetch records a manifest fetch metric.
func RecordManifestFetch(result string, duration time.Duration) {
	ManifestFetchesTotal.WithLabelValues(result).Inc()
	ManifestFetchDuration.Observe(duration.Seconds())
}

// RecordQuotaCheck records a quota check metric.
func RecordQuotaCheck(outcome string, duration time.Duration) {
	QuotaChecksTotal.WithLabelValues(outcome).Inc()
	QuotaCheckDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// SetCacheEntries sets the current entry count for the given cache type.
func SetCacheEntries(cacheType string, count int) {
	CacheSize.WithLabelValues(cacheType).Set(float64(count))
}

// classifyError buckets an error message into a coarse error type label.
// Labels must be low-cardinality, so raw error strings never become labels.
func classifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "refused"), strings.Contains(msg, "no such host"):
		return "connection"
	case strings.Contains(msg, "status"):
		return "status"
	case strings.Contains(msg, "decode"), strings.Contains(msg, "unmarshal"), strings.Contains(msg, "json"):
		return "decode"
	default:
		return "other"
	}
}
