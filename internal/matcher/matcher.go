// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package matcher provides the strategies that reduce two extracted
// tokens to an access verdict, plus the request-level quota matcher.
//
// A Matcher is a pure predicate over the client token and the resource
// token; it never performs I/O and never fails. The quota matcher is the
// one exception to the two-token model: it inspects the request itself,
// talks to the quota store, and fails open when the store is unhealthy,
// because quota is an over-use brake rather than the primary gate.
package matcher

import (
	"context"
	"net/http"
	"sort"

	"github.com/tomtom215/claviger/internal/extractor"
)

// Registry names for the built-in matching strategies. Routes select
// matchers by these names.
const (
	NameEquality   = "equality"
	NameBitwiseAnd = "bitwise-and"
	NameQuota      = "quota"
	NameNull       = "null"
)

// Matcher decides whether the client token grants access to the
// resource token. Implementations are pure and total: any pair of
// tokens produces a verdict, type mismatches included.
type Matcher interface {
	Match(ctx context.Context, client, resource extractor.Token) bool
}

// RequestMatcher decides directly on the request, outside the two-token
// model. The quota matcher is the only built-in implementation.
type RequestMatcher interface {
	MatchRequest(ctx context.Context, r *http.Request) bool
}

// Registry resolves matchers by route name. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	byName map[string]Matcher
}

// NewRegistry builds a registry from the given name-to-strategy map.
// The map is copied, so later changes to it do not leak in.
func NewRegistry(matchers map[string]Matcher) *Registry {
	byName := make(map[string]Matcher, len(matchers))
	for name, m := range matchers {
		byName[name] = m
	}
	return &Registry{byName: byName}
}

// Get returns the matcher registered under name.
func (r *Registry) Get(name string) (Matcher, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// GetRequestMatcher returns the matcher registered under name when it
// also operates on the request level.
func (r *Registry) GetRequestMatcher(name string) (RequestMatcher, bool) {
	m, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	rm, ok := m.(RequestMatcher)
	return rm, ok
}

// Names returns the registered route names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Null is a Matcher that never grants access. It stands in for
// strategies whose configuration prerequisites are absent.
type Null struct{}

// NewNull returns the always-denying matcher.
func NewNull() *Null {
	return &Null{}
}

// Match always denies.
func (m *Null) Match(_ context.Context, _, _ extractor.Token) bool {
	return false
}

// String identifies the matcher in startup logs.
func (m *Null) String() string {
	return "NullMatcher()"
}
