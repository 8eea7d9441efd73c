// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package authtoken validates the HS256-signed JWTs that clients present in
// cookies and extracts the access bitmap they carry.
package authtoken

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/claviger/internal/bitmask"
)

// BitmapClaim is the claim key under which tokens carry a base64-encoded
// access bitmap.
const BitmapClaim = "bitmap"

var (
	// ErrNoBitmap indicates a token without a bitmap claim.
	ErrNoBitmap = errors.New("token carries no bitmap claim")

	// ErrUnexpectedAudience indicates a token that carries an audience claim
	// when the request context provides no audience to check it against.
	ErrUnexpectedAudience = errors.New("token carries an unexpected audience claim")
)

// Validate validates a JWT token string and returns its claims.
//
// Validation Steps:
//  1. Parse token structure and extract claims
//  2. Verify HMAC-SHA256 signature matches secret
//  3. Check signing algorithm is HS256 (prevents algorithm confusion attacks)
//  4. Verify token expiration (ExpiresAt claim) when present
//  5. Verify the audience claim per the rules below
//
// Audience rules:
//   - verifyAudience and audience non-empty: the token must carry an aud
//     claim containing the audience.
//   - verifyAudience and audience empty: the request did not provide enough
//     forwarded headers to reconstruct an audience, so a token carrying any
//     aud claim is rejected while a token without one passes.
//   - verifyAudience false: the aud claim is ignored entirely.
//
// The audience is reconstructed per request from the forwarded protocol,
// host, and port, so it is a parameter here rather than fixed configuration.
func Validate(tokenString, secret, audience string, verifyAudience bool) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if verifyAudience && audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if verifyAudience && audience == "" {
		aud, err := claims.GetAudience()
		if err != nil {
			return nil, fmt.Errorf("failed to read audience claim: %w", err)
		}
		if len(aud) > 0 {
			return nil, ErrUnexpectedAudience
		}
	}

	return claims, nil
}

// Bitmap extracts the base64-encoded access bitmap from validated claims.
// Returns ErrNoBitmap when the claim is absent or not a string.
func Bitmap(claims jwt.MapClaims) (bitmask.BitMask64, error) {
	raw, ok := claims[BitmapClaim].(string)
	if !ok {
		return 0, ErrNoBitmap
	}

	m, err := bitmask.FromBase64(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode bitmap claim: %w", err)
	}
	return m, nil
}
