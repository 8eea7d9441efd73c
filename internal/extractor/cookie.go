// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/claviger/internal/authtoken"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/proxyheader"
)

// CookieBitmap extracts the permission bitmask from a JWT carried in a
// named cookie. The token must be signed with the configured secret and,
// when audience verification is on, bound to the audience derived from
// the forwarded proxy headers.
type CookieBitmap struct {
	cookieName     string
	jwtSecret      string
	verifyAudience bool
}

// NewCookieBitmap returns a cookie extractor producing mask tokens.
func NewCookieBitmap(cookieName, jwtSecret string, verifyAudience bool) *CookieBitmap {
	return &CookieBitmap{
		cookieName:     cookieName,
		jwtSecret:      jwtSecret,
		verifyAudience: verifyAudience,
	}
}

// Extract validates the cookie JWT and returns its bitmap claim as a
// mask token. A missing cookie, a bad signature, or an unusable bitmap
// claim all yield no token.
func (e *CookieBitmap) Extract(ctx context.Context, r *http.Request) (Token, error) {
	claims, ok := validatedClaims(ctx, r, e.cookieName, e.jwtSecret, e.verifyAudience)
	if !ok {
		return NoToken(), nil
	}

	mask, err := authtoken.Bitmap(claims)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Str("cookie_name", e.cookieName).
			Msg("No usable bitmap claim in validated token")
		return NoToken(), nil
	}

	return MaskToken(mask), nil
}

// String identifies the extractor in startup logs.
func (e *CookieBitmap) String() string {
	return fmt.Sprintf("CookieBitmapExtractor(cookie_name=%s)", e.cookieName)
}

// CookieUserID extracts the subject claim from a JWT carried in a named
// cookie. The quota matcher uses it to attribute document accesses to a
// user.
type CookieUserID struct {
	cookieName     string
	jwtSecret      string
	verifyAudience bool
}

// NewCookieUserID returns a cookie extractor producing user-id tokens.
func NewCookieUserID(cookieName, jwtSecret string, verifyAudience bool) *CookieUserID {
	return &CookieUserID{
		cookieName:     cookieName,
		jwtSecret:      jwtSecret,
		verifyAudience: verifyAudience,
	}
}

// Extract validates the cookie JWT and returns its sub claim as a
// user-id token. An absent or empty sub claim yields no token.
func (e *CookieUserID) Extract(ctx context.Context, r *http.Request) (Token, error) {
	claims, ok := validatedClaims(ctx, r, e.cookieName, e.jwtSecret, e.verifyAudience)
	if !ok {
		return NoToken(), nil
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		logging.CtxWarn(ctx).Str("cookie_name", e.cookieName).
			Msg("No sub claim in validated token")
		return NoToken(), nil
	}

	return UserIDToken(subject), nil
}

// String identifies the extractor in startup logs.
func (e *CookieUserID) String() string {
	return fmt.Sprintf("CookieUserIdExtractor(cookie_name=%s, verify_audience=%t)", e.cookieName, e.verifyAudience)
}

// validatedClaims reads the named cookie and validates it as an HS256
// JWT against the shared secret. The expected audience comes from the
// forwarded proxy headers; with verification on, a request without
// forwarded headers only accepts tokens that carry no audience at all.
func validatedClaims(ctx context.Context, r *http.Request, cookieName, jwtSecret string, verifyAudience bool) (jwt.MapClaims, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		logging.CtxWarn(ctx).Str("cookie_name", cookieName).Msg("Cookie not found in request")
		return nil, false
	}

	audience := proxyheader.Audience(r)
	claims, err := authtoken.Validate(cookie.Value, jwtSecret, audience, verifyAudience)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).
			Str("cookie_name", cookieName).
			Str("token", logging.SanitizeToken(cookie.Value)).
			Msg("Failed to validate JWT from cookie")
		return nil, false
	}

	return claims, true
}
