// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package decision composes extractors and matchers into the
// authorization verdict for one subrequest.
//
// A request names its strategies through URL path parameters. The
// pipeline resolves them against the two registries, runs the client and
// resource extractors concurrently, and reduces the tokens through the
// matcher. Anything recoverable is a deny; only extractor infrastructure
// failures surface as errors, which the HTTP layer reports as 5xx.
package decision

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/claviger/internal/extractor"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/matcher"
	"github.com/tomtom215/claviger/internal/metrics"
)

// QuotaRedirectURL is the hint handed to the proxy when a decision is
// denied for quota exhaustion rather than missing rights.
const QuotaRedirectURL = "https://http.cat/429"

// Selection names the strategies a request selected through its URL
// path parameters.
type Selection struct {
	Matcher           string
	ClientExtractor   string
	ResourceExtractor string
}

// Verdict is the outcome of one decision. RedirectURL is set only on
// quota denials, where the proxy may forward the user to an explanatory
// page instead of a bare 403.
type Verdict struct {
	Allow       bool
	RedirectURL string
}

// deny is the zero verdict.
var deny = Verdict{}

// Pipeline evaluates decisions against a fixed pair of registries. It
// is built once at startup and safe for concurrent use.
type Pipeline struct {
	extractors *extractor.Registry
	matchers   *matcher.Registry
}

// NewPipeline returns a pipeline over the given registries.
func NewPipeline(extractors *extractor.Registry, matchers *matcher.Registry) *Pipeline {
	return &Pipeline{
		extractors: extractors,
		matchers:   matchers,
	}
}

// Decide evaluates the selected strategies against the request.
//
// A verdict is returned with a nil error for every decidable request,
// deny included. A non-nil error means an extractor's infrastructure
// failed and the request cannot be decided either way.
func (p *Pipeline) Decide(ctx context.Context, r *http.Request, sel Selection, withQuota bool) (Verdict, error) {
	start := time.Now()

	m, mok := p.matchers.Get(sel.Matcher)
	clientExt, cok := p.extractors.Get(sel.ClientExtractor)
	resourceExt, rok := p.extractors.Get(sel.ResourceExtractor)
	if !mok || !cok || !rok {
		// The selection is proxy-controlled input; raw names go to the
		// logs only, collapsed to a sentinel in metric labels so an
		// errant proxy config cannot mint unbounded label values.
		logging.CtxWarn(ctx).
			Str("matcher", sel.Matcher).
			Str("client_extractor", sel.ClientExtractor).
			Str("resource_extractor", sel.ResourceExtractor).
			Msg("Unknown strategy selected")
		metrics.RecordDecision(
			metricLabel(sel.Matcher, mok),
			metricLabel(sel.ClientExtractor, cok),
			metricLabel(sel.ResourceExtractor, rok),
			"deny", time.Since(start))
		return deny, nil
	}

	// Quota runs before the extractors: a user over the allowance is
	// turned away without spending index or manifest round-trips. A
	// deployment without a quota matcher skips the step silently.
	if withQuota {
		if rm, ok := p.matchers.GetRequestMatcher(matcher.NameQuota); ok {
			if !rm.MatchRequest(ctx, r) {
				metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, "quota_deny", time.Since(start))
				return Verdict{Allow: false, RedirectURL: QuotaRedirectURL}, nil
			}
		}
	}

	// The two extractors are independent and may each block on I/O, so
	// they fan out and the decision waits for both.
	clientCh := make(chan extractOutcome, 1)
	resourceCh := make(chan extractOutcome, 1)
	go func() { clientCh <- runExtractor(ctx, sel.ClientExtractor, clientExt, r) }()
	go func() { resourceCh <- runExtractor(ctx, sel.ResourceExtractor, resourceExt, r) }()
	client, resource := <-clientCh, <-resourceCh

	// A cancelled inbound request discards whatever the extractors
	// produced; the proxy has already given up on the answer.
	if ctx.Err() != nil {
		logging.CtxDebug(ctx).Msg("Request cancelled during extraction")
		metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, "deny", time.Since(start))
		return deny, nil
	}

	if client.err != nil {
		metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, "error", time.Since(start))
		return deny, fmt.Errorf("client extractor %s: %w", sel.ClientExtractor, client.err)
	}
	if resource.err != nil {
		metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, "error", time.Since(start))
		return deny, fmt.Errorf("resource extractor %s: %w", sel.ResourceExtractor, resource.err)
	}

	if client.token.IsZero() || resource.token.IsZero() {
		logging.CtxDebug(ctx).
			Bool("client_token", !client.token.IsZero()).
			Bool("resource_token", !resource.token.IsZero()).
			Msg("Extraction produced no token")
		metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, "deny", time.Since(start))
		return deny, nil
	}

	allow := runMatcher(ctx, sel.Matcher, m, client.token, resource.token)

	verdict := "deny"
	if allow {
		verdict = "allow"
	}
	metrics.RecordDecision(sel.Matcher, sel.ClientExtractor, sel.ResourceExtractor, verdict, time.Since(start))
	return Verdict{Allow: allow}, nil
}

// metricLabel returns the strategy name for resolved selections and a
// sentinel for everything else, keeping metric label cardinality at the
// size of the registries.
func metricLabel(name string, known bool) string {
	if known {
		return name
	}
	return "unknown"
}

// extractOutcome carries one extractor's result across its goroutine
// boundary.
type extractOutcome struct {
	token extractor.Token
	err   error
}

// runExtractor invokes one extractor with panic containment. A panic is
// an invariant violation inside the strategy; it is logged and treated
// as no token, so the request denies instead of killing the process.
func runExtractor(ctx context.Context, name string, ext extractor.Extractor, r *http.Request) (out extractOutcome) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logging.CtxError(ctx).
				Str("extractor", name).
				Interface("panic", rec).
				Msg("Extractor panicked")
			out = extractOutcome{token: extractor.NoToken()}
			metrics.RecordExtraction(name, "error", time.Since(start))
		}
	}()

	token, err := ext.Extract(ctx, r)
	switch {
	case err != nil:
		metrics.RecordExtraction(name, "error", time.Since(start))
	case token.IsZero():
		metrics.RecordExtraction(name, "empty", time.Since(start))
	default:
		metrics.RecordExtraction(name, "token", time.Since(start))
	}
	return extractOutcome{token: token, err: err}
}

// runMatcher invokes the matcher with panic containment; a panicking
// matcher denies.
func runMatcher(ctx context.Context, name string, m matcher.Matcher, client, resource extractor.Token) (allow bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.CtxError(ctx).
				Str("matcher", name).
				Interface("panic", rec).
				Msg("Matcher panicked")
			allow = false
		}
	}()

	return m.Match(ctx, client, resource)
}
