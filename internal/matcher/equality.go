// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package matcher

import (
	"context"

	"github.com/tomtom215/claviger/internal/extractor"
)

// Equality grants access when the two tokens are structurally equal:
// same kind and same payload. It backs the shared-secret routes, where
// the client presents a bearer credential and the resource side serves
// the expected value.
type Equality struct{}

// NewEquality returns the structural-equality matcher.
func NewEquality() *Equality {
	return &Equality{}
}

// Match reports whether both tokens are present and equal. Two absent
// tokens are never a match: the pipeline already denies on missing
// tokens, and absence must not look like agreement.
func (m *Equality) Match(_ context.Context, client, resource extractor.Token) bool {
	if client.IsZero() || resource.IsZero() {
		return false
	}
	return client.Equal(resource)
}

// String identifies the matcher in startup logs.
func (m *Equality) String() string {
	return "EqualityMatcher()"
}
