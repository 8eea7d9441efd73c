// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package extractor provides the token extraction strategies the
// decision pipeline runs against incoming auth subrequests.
//
// An extractor inspects the proxy headers, cookies, filesystem, index,
// or a IIIF manifest and produces a Token: an opaque secret, a
// permission bitmask, or a user id. Extractors distinguish two failure
// modes. Recoverable conditions (missing header, unknown document,
// invalid JWT) yield NoToken with a nil error and the request is simply
// denied. Infrastructure failures (the index or a IIIF server
// unreachable) are returned as errors and surface as 5xx, never as a
// silent deny.
//
// Extractors are selected by route name through a Registry built once
// at startup. Strategies whose configuration prerequisites are absent
// are registered as the Null extractor, so every route name stays
// valid regardless of deployment shape.
package extractor

import (
	"context"
	"net/http"
	"sort"
)

// Registry names for the built-in extraction strategies. Routes select
// extractors by these names.
const (
	NameBearerToken        = "bearer-token"
	NameManifestWithSecret = "manifest-with-secret"
	NameStaticSecret       = "static-secret"
	NameContentItemBitmap  = "content-item-image-bitmap"
	NameCookieBitmap       = "cookie-bitmap"
	NameCookieUserID       = "cookie-user-id"
	NameIIIFManifest       = "iiif-presentation-manifest"
	NameIIIFURIDocID       = "iiif-uri-doc-id"
	NameNull               = "null"
)

// Extractor pulls an authorization token out of an incoming request.
type Extractor interface {
	// Extract returns the token the request carries. A non-nil error
	// means the strategy itself failed and the request cannot be
	// decided; recoverable conditions return NoToken with a nil error.
	Extract(ctx context.Context, r *http.Request) (Token, error)
}

// Registry resolves extractors by route name. It is populated once at
// startup and read-only afterwards.
type Registry struct {
	byName map[string]Extractor
}

// NewRegistry builds a registry from the given name-to-strategy map.
// The map is copied, so later changes to it do not leak in.
func NewRegistry(extractors map[string]Extractor) *Registry {
	byName := make(map[string]Extractor, len(extractors))
	for name, ext := range extractors {
		byName[name] = ext
	}
	return &Registry{byName: byName}
}

// Get returns the extractor registered under name.
func (r *Registry) Get(name string) (Extractor, bool) {
	ext, ok := r.byName[name]
	return ext, ok
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

// Null is an Extractor that never produces a token. It stands in for
// strategies whose configuration prerequisites are absent.
type Null struct{}

// NewNull returns the no-op extractor.
func NewNull() *Null {
	return &Null{}
}

// Extract always returns the no-token case.
func (e *Null) Extract(_ context.Context, _ *http.Request) (Token, error) {
	return NoToken(), nil
}

// String identifies the extractor in startup logs.
func (e *Null) String() string {
	return "NullExtractor()"
}
