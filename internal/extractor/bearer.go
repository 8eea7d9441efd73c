// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/claviger/internal/logging"
)

// BearerToken extracts the credential from an RFC 6750 Authorization
// header. The header must consist of exactly the scheme and the token;
// anything else yields no token.
type BearerToken struct{}

// NewBearerToken returns the Authorization header extractor.
func NewBearerToken() *BearerToken {
	return &BearerToken{}
}

// Extract returns the bearer credential as a string token.
func (e *BearerToken) Extract(ctx context.Context, r *http.Request) (Token, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		logging.CtxDebug(ctx).Msg("No Authorization header in request")
		return NoToken(), nil
	}

	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		logging.CtxDebug(ctx).Msg("Authorization header is not a bearer credential")
		return NoToken(), nil
	}

	return StringToken(fields[1]), nil
}

// String identifies the extractor in startup logs.
func (e *BearerToken) String() string {
	return "BearerTokenExtractor()"
}
