// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"net/http"
)

// StaticSecret always returns the configured secret, regardless of the
// request. Paired with the manifest extractor and the equality matcher
// it gates static files behind a shared per-resource secret.
type StaticSecret struct {
	secret string
}

// NewStaticSecret returns an extractor producing the given secret.
func NewStaticSecret(secret string) *StaticSecret {
	return &StaticSecret{secret: secret}
}

// Extract returns the configured secret as a string token.
func (e *StaticSecret) Extract(_ context.Context, _ *http.Request) (Token, error) {
	return StringToken(e.secret), nil
}

// String identifies the extractor in startup logs. The secret itself is
// never rendered.
func (e *StaticSecret) String() string {
	return "StaticSecretExtractor()"
}
