// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"fmt"

	"github.com/tomtom215/claviger/internal/bitmask"
	"github.com/tomtom215/claviger/internal/logging"
)

// Kind discriminates the payload a Token carries.
type Kind uint8

const (
	// KindNone marks the absence of a token.
	KindNone Kind = iota

	// KindString carries an opaque secret such as a bearer token or a
	// manifest secret.
	KindString

	// KindMask carries a 64-bit permission bitmask.
	KindMask

	// KindUserID carries a user identifier, used by the quota matcher.
	KindUserID
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindString:
		return "string"
	case KindMask:
		return "mask"
	case KindUserID:
		return "user_id"
	default:
		return "unknown"
	}
}

// Token is the value an extractor pulls out of a request. It is a small
// variant type: exactly one of the payload fields is meaningful,
// selected by Kind. The zero value is the no-token case.
type Token struct {
	Kind Kind
	Str  string
	Mask bitmask.BitMask64
}

// NoToken returns the empty token. Extractors return it for every
// recoverable failure (missing header, unknown document, invalid JWT).
func NoToken() Token {
	return Token{}
}

// StringToken wraps an opaque secret value.
func StringToken(s string) Token {
	return Token{Kind: KindString, Str: s}
}

// MaskToken wraps a permission bitmask.
func MaskToken(m bitmask.BitMask64) Token {
	return Token{Kind: KindMask, Mask: m}
}

// UserIDToken wraps a user identifier.
func UserIDToken(id string) Token {
	return Token{Kind: KindUserID, Str: id}
}

// IsZero reports whether the token is the no-token case.
func (t Token) IsZero() bool {
	return t.Kind == KindNone
}

// Equal reports structural equality: same kind and same payload.
func (t Token) Equal(other Token) bool {
	return t == other
}

// String renders the token for diagnostics. Secret payloads are
// sanitized so they never reach the logs in full.
func (t Token) String() string {
	switch t.Kind {
	case KindString:
		return fmt.Sprintf("Token(string, %s)", logging.SanitizeToken(t.Str))
	case KindMask:
		return fmt.Sprintf("Token(mask, %s)", t.Mask)
	case KindUserID:
		return fmt.Sprintf("Token(user_id, %s)", logging.SanitizeUserID(t.Str))
	default:
		return "Token(none)"
	}
}
