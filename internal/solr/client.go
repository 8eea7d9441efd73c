// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package solr provides a client for the Solr JSON Request API.
//
// The client POSTs JSON query bodies to {base_url}/{collection}/{handler}
// and returns the raw response bytes. Successful responses are memoized in
// an in-process LRU cache so that repeated authorization checks for the
// same document do not hit the index. Network calls go through a circuit
// breaker and an optional outbound rate limiter.
package solr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/claviger/internal/cache"
	"github.com/tomtom215/claviger/internal/config"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/metrics"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxConnections = 100
	defaultMaxKeepalive   = 20
	defaultHandler        = "select"
	defaultRows           = 10

	// Memoization window for query responses. Rights bitmaps change rarely,
	// so an hour of staleness is acceptable for authorization decisions.
	memoTTL      = time.Hour
	memoCapacity = 10000

	memoCacheType = "solr_query"

	// maxErrorBodySize limits how much of an error response body is read
	// for diagnostics. Prevents unbounded memory allocation on large
	// error pages.
	maxErrorBodySize = 64 * 1024 // 64KB
)

// ErrNotJSON indicates the index returned a 2xx response whose body is not
// valid JSON. Callers treat this as a malformed-index error, not a miss.
var ErrNotJSON = errors.New("solr response is not valid JSON")

// StatusError reports a non-2xx response from the index. The body excerpt
// is capped at maxErrorBodySize.
type StatusError struct {
	Collection string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("solr query to collection %q failed with status %d: %s", e.Collection, e.StatusCode, e.Body)
}

// SearchOptions shapes the JSON query body for Search.
// Zero values fall back to query "*:*", rows 10, offset 0, handler "select".
type SearchOptions struct {
	Query   string   // main query, default "*:*"
	Filter  []string // filter queries (fq)
	Fields  []string // field list (fl), comma-joined on the wire
	Rows    int      // result window size, default 10
	Start   int      // result window offset
	Sort    string   // sort clause
	Handler string   // request handler, default "select"
}

// queryBody is the Solr JSON Request API body. The params object is only
// present when at least one of fq/fl/sort is set, matching what the index
// expects for a bare query.
type queryBody struct {
	Query  string       `json:"query"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Params *queryParams `json:"params,omitempty"`
}

type queryParams struct {
	FilterQuery []string `json:"fq,omitempty"`
	FieldList   string   `json:"fl,omitempty"`
	Sort        string   `json:"sort,omitempty"`
}

// Client talks to a Solr instance over the JSON Request API.
//
// Thread Safety: safe for concurrent use. The memo cache and the circuit
// breaker carry their own synchronization.
type Client struct {
	baseURL  string
	username string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *queryBreaker
	memo       *cache.LRUCache
}

// New creates a Solr client from configuration.
//
// The HTTP transport is pooled (max_connections total, max_keepalive idle
// per host) with a default request timeout of 30 seconds. Basic auth is
// sent only when both username and password are configured. A forward
// proxy URL, when set, overrides the environment proxy settings.
func New(cfg *config.SolrConfig) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("solr base_url is required")
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = defaultMaxConnections
	}
	maxKeepalive := cfg.MaxKeepalive
	if maxKeepalive <= 0 {
		maxKeepalive = defaultMaxKeepalive
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        maxConns,
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxKeepalive,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid solr proxy_url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		burst := int(cfg.MaxRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    limiter,
		breaker:    newQueryBreaker("solr"),
		memo:       cache.NewLRUCache(memoCapacity, memoTTL),
	}, nil
}

// Search runs a query against a collection and returns the raw response
// bytes. The body is `{"query","limit","offset"}` plus an optional params
// object carrying fq, fl (comma-joined) and sort.
func (c *Client) Search(ctx context.Context, collection string, opts SearchOptions) (json.RawMessage, error) {
	query := opts.Query
	if query == "" {
		query = "*:*"
	}
	rows := opts.Rows
	if rows <= 0 {
		rows = defaultRows
	}

	body := queryBody{
		Query:  query,
		Limit:  rows,
		Offset: opts.Start,
	}
	params := queryParams{
		FilterQuery: opts.Filter,
		FieldList:   strings.Join(opts.Fields, ","),
		Sort:        opts.Sort,
	}
	if len(params.FilterQuery) > 0 || params.FieldList != "" || params.Sort != "" {
		body.Params = &params
	}

	return c.PostQuery(ctx, collection, body, opts.Handler)
}

// PostQuery POSTs a JSON query body to {base_url}/{collection}/{handler}
// and returns the raw response bytes.
//
// Responses are memoized per URL+body for an hour; cache hits skip both
// the network and the circuit breaker. Map-typed bodies marshal with keys
// in sorted order, so logically equal queries share a cache entry.
func (c *Client) PostQuery(ctx context.Context, collection string, body any, handler string) (json.RawMessage, error) {
	if collection == "" {
		return nil, errors.New("solr collection is required")
	}
	if handler == "" {
		handler = defaultHandler
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal solr query body: %w", err)
	}

	reqURL := c.baseURL + "/" + collection + "/" + handler

	key := reqURL + "\n" + string(payload)
	if cached, ok := c.memo.Get(key); ok {
		metrics.RecordCacheHit(memoCacheType)
		out := make([]byte, len(cached))
		copy(out, cached)
		return out, nil
	}
	metrics.RecordCacheMiss(memoCacheType)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("solr rate limit wait: %w", err)
		}
	}

	raw, err := c.breaker.execute(func() ([]byte, error) {
		start := time.Now()
		data, qerr := c.doQuery(ctx, reqURL, collection, payload)
		metrics.RecordSolrQuery(time.Since(start), qerr)
		return data, qerr
	})
	if err != nil {
		return nil, err
	}

	c.memo.Add(key, raw)
	metrics.SetCacheEntries(memoCacheType, c.memo.Len())

	return raw, nil
}

// doQuery performs the actual HTTP round trip.
func (c *Client) doQuery(ctx context.Context, reqURL, collection string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create solr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solr query to collection %q failed: %w", collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body := readBodyForError(resp.Body)
		return nil, &StatusError{Collection: collection, StatusCode: resp.StatusCode, Body: string(body)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read solr response: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: collection %q", ErrNotJSON, collection)
	}

	return raw, nil
}

// Ping verifies connectivity by running a zero-row query against the
// collection. It bypasses the memo cache and the circuit breaker; it is
// intended for startup and readiness probes, not the decision path.
func (c *Client) Ping(ctx context.Context, collection string) error {
	if collection == "" {
		return errors.New("solr collection is required")
	}

	payload, err := json.Marshal(queryBody{Query: "*:*", Limit: 0})
	if err != nil {
		return fmt.Errorf("marshal solr ping body: %w", err)
	}

	_, err = c.doQuery(ctx, c.baseURL+"/"+collection+"/"+defaultHandler, collection, payload)
	return err
}

// AuthenticationDetails describes the configured credentials with the
// password redacted. Returns "none" when basic auth is not configured.
func (c *Client) AuthenticationDetails() string {
	if c.username != "" && c.password != "" {
		return logging.RedactBasicAuth(c.username)
	}
	return "none"
}

// String renders the client for logs. The password never appears.
func (c *Client) String() string {
	return fmt.Sprintf("SolrClient(base_url=%s, auth=%s)", c.baseURL, c.AuthenticationDetails())
}

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// readBodyForError reads a response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
