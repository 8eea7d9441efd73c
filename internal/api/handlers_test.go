// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/claviger/internal/decision"
	"github.com/tomtom215/claviger/internal/extractor"
	"github.com/tomtom215/claviger/internal/matcher"
)

// serve routes one request through a full router built over the given
// registries.
func serve(t *testing.T, exts map[string]extractor.Extractor, ms map[string]matcher.Matcher, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	pipeline := decision.NewPipeline(extractor.NewRegistry(exts), matcher.NewRegistry(ms))
	router := NewRouter(NewHandler(pipeline, nil), nil)

	rec := httptest.NewRecorder()
	router.Setup().ServeHTTP(rec, req)
	return rec
}

// stringExtractor returns a fixed string token.
type stringExtractor struct {
	value string
}

func (e *stringExtractor) Extract(_ context.Context, _ *http.Request) (extractor.Token, error) {
	return extractor.StringToken(e.value), nil
}

// failingExtractor simulates index infrastructure failure.
type failingExtractor struct{}

func (e *failingExtractor) Extract(_ context.Context, _ *http.Request) (extractor.Token, error) {
	return extractor.NoToken(), io.ErrUnexpectedEOF
}

// denyQuota is a request-level matcher that always reports quota
// exhaustion.
type denyQuota struct{}

func (denyQuota) Match(_ context.Context, _, _ extractor.Token) bool          { return false }
func (denyQuota) MatchRequest(_ context.Context, _ *http.Request) bool        { return false }

func TestDecideAllow(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/equality/client/resource", nil)
	rec := serve(t,
		map[string]extractor.Extractor{
			"client":   &stringExtractor{value: "s3cr3t"},
			"resource": &stringExtractor{value: "s3cr3t"},
		},
		map[string]matcher.Matcher{"equality": matcher.NewEquality()},
		req,
	)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("decision response carried a body: %q", rec.Body.String())
	}
}

func TestDecideDenyHasEmptyBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/equality/client/resource", nil)
	rec := serve(t,
		map[string]extractor.Extractor{
			"client":   &stringExtractor{value: "xyz"},
			"resource": &stringExtractor{value: "s3cr3t"},
		},
		map[string]matcher.Matcher{"equality": matcher.NewEquality()},
		req,
	)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("deny response carried a body: %q", rec.Body.String())
	}
	if got := rec.Header().Get("X-Redirect-Url"); got != "" {
		t.Errorf("plain deny carried X-Redirect-Url %q", got)
	}
}

func TestDecideInfrastructureErrorIs500WithoutDetail(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/equality/client/resource", nil)
	rec := serve(t,
		map[string]extractor.Extractor{
			"client":   &stringExtractor{value: "s3cr3t"},
			"resource": &failingExtractor{},
		},
		map[string]matcher.Matcher{"equality": matcher.NewEquality()},
		req,
	)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unexpected EOF") {
		t.Error("error detail leaked into the response body")
	}
}

func TestDecideQuotaDenyCarriesRedirectHint(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/equality/client/resource/with-quota-check", nil)
	rec := serve(t,
		map[string]extractor.Extractor{
			"client":   &stringExtractor{value: "s3cr3t"},
			"resource": &stringExtractor{value: "s3cr3t"},
		},
		map[string]matcher.Matcher{
			"equality": matcher.NewEquality(),
			"quota":    denyQuota{},
		},
		req,
	)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("X-Redirect-Url"); got != decision.QuotaRedirectURL {
		t.Errorf("X-Redirect-Url = %q, want %q", got, decision.QuotaRedirectURL)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("quota deny carried a body: %q", rec.Body.String())
	}
}

func TestDecideAcceptsAnyMethod(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "HEAD", "POST", "PUT", "DELETE"} {
		req := httptest.NewRequest(method, "/equality/client/resource", nil)
		rec := serve(t,
			map[string]extractor.Extractor{
				"client":   &stringExtractor{value: "s3cr3t"},
				"resource": &stringExtractor{value: "s3cr3t"},
			},
			map[string]matcher.Matcher{"equality": matcher.NewEquality()},
			req,
		)
		if rec.Code != http.StatusOK {
			t.Errorf("method %s: status = %d, want 200", method, rec.Code)
		}
	}
}

func TestHealthPayload(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := serve(t, nil, nil, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	if payload["status"] != "ok" {
		t.Errorf(`payload = %v, want {"status":"ok"}`, payload)
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		backends   map[string]bool
		wantStatus int
		wantField  string
	}{
		{
			name:       "no configured backends",
			backends:   map[string]bool{},
			wantStatus: http.StatusOK,
			wantField:  "ok",
		},
		{
			name:       "all backends reachable",
			backends:   map[string]bool{"solr": true, "redis": true},
			wantStatus: http.StatusOK,
			wantField:  "ok",
		},
		{
			name:       "one backend down",
			backends:   map[string]bool{"solr": true, "redis": false},
			wantStatus: http.StatusServiceUnavailable,
			wantField:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pipeline := decision.NewPipeline(extractor.NewRegistry(nil), matcher.NewRegistry(nil))
			handler := NewHandler(pipeline, func(_ context.Context) map[string]bool {
				return tt.backends
			})
			router := NewRouter(handler, nil)

			rec := httptest.NewRecorder()
			router.Setup().ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var payload healthStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if payload.Status != tt.wantField {
				t.Errorf("payload status = %q, want %q", payload.Status, tt.wantField)
			}
		})
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := serve(t, nil, nil, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics body does not look like Prometheus text exposition")
	}
}

func TestRequestIDHeaderOnDecisionRoutes(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/equality/client/resource", nil)
	rec := serve(t,
		map[string]extractor.Extractor{
			"client":   &stringExtractor{value: "a"},
			"resource": &stringExtractor{value: "a"},
		},
		map[string]matcher.Matcher{"equality": matcher.NewEquality()},
		req,
	)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response missing X-Request-ID header")
	}
}
