// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package matcher

import (
	"context"

	"github.com/tomtom215/claviger/internal/extractor"
	"github.com/tomtom215/claviger/internal/logging"
)

// BitwiseAnd grants access when the client and resource permission
// bitmasks share at least one set bit. Both tokens must carry masks; a
// kind mismatch is an invariant violation and denies.
type BitwiseAnd struct{}

// NewBitwiseAnd returns the bitmask-intersection matcher.
func NewBitwiseAnd() *BitwiseAnd {
	return &BitwiseAnd{}
}

// Match reports whether the two masks intersect.
func (m *BitwiseAnd) Match(ctx context.Context, client, resource extractor.Token) bool {
	if client.Kind != extractor.KindMask || resource.Kind != extractor.KindMask {
		logging.CtxWarn(ctx).
			Str("client_kind", client.Kind.String()).
			Str("resource_kind", resource.Kind.String()).
			Msg("Bitwise matcher received non-mask tokens")
		return false
	}
	return client.Mask.AccessAllowed(resource.Mask)
}

// String identifies the matcher in startup logs.
func (m *BitwiseAnd) String() string {
	return "BitWiseAndMatcherStrategy()"
}
