// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package matcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/claviger/internal/extractor"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/metrics"
	"github.com/tomtom215/claviger/internal/quota"
)

// Quota is the request-level matcher that enforces the per-user window
// allowance of distinct documents.
//
// It identifies the user through its user-id extractor and the document
// through its doc-id function, then asks the quota checker. Every
// failure along that path fails open: an anonymous request, a request
// without a document id, or an unreachable quota store must never deny
// access on its own. Quota is a brake on over-use, not a gate.
type Quota struct {
	checker quota.Checker
	userID  extractor.Extractor
	docID   extractor.DocIDFunc
}

// NewQuota returns the quota matcher. userID attributes the request to
// a user, docID names the accessed document.
func NewQuota(checker quota.Checker, userID extractor.Extractor, docID extractor.DocIDFunc) *Quota {
	return &Quota{
		checker: checker,
		userID:  userID,
		docID:   docID,
	}
}

// Match satisfies the Matcher interface so the quota matcher can live
// in the registry alongside the token matchers. A quota entry selected
// as a token matcher cannot attribute the request and denies.
func (m *Quota) Match(ctx context.Context, _, _ extractor.Token) bool {
	logging.CtxWarn(ctx).Msg("Quota matcher selected as a token matcher, denying")
	return false
}

// MatchRequest reports whether the user behind the request is still
// below the window allowance. True means proceed with the decision.
func (m *Quota) MatchRequest(ctx context.Context, r *http.Request) bool {
	start := time.Now()

	userTok, err := m.userID.Extract(ctx, r)
	if err != nil || userTok.IsZero() {
		logging.CtxDebug(ctx).Msg("No user identity on request, quota check skipped")
		metrics.RecordQuotaCheck("fail_open", time.Since(start))
		return true
	}

	docID, err := m.docID(r)
	if err != nil || docID == "" {
		logging.CtxDebug(ctx).Msg("No document id on request, quota check skipped")
		metrics.RecordQuotaCheck("fail_open", time.Since(start))
		return true
	}

	// The checker records the allowed and denied outcomes itself; only
	// the fail-open policy applied here is recorded at this level.
	status, err := m.checker.Check(ctx, userTok.Str, docID)
	if err != nil {
		logging.CtxError(ctx).Err(err).
			Str("user_id", logging.SanitizeUserID(userTok.Str)).
			Str("doc_id", docID).
			Msg("Quota check failed, failing open")
		metrics.RecordQuotaCheck("fail_open", time.Since(start))
		return true
	}

	if status == quota.StatusQuotaReached {
		logging.CtxWarn(ctx).
			Str("user_id", logging.SanitizeUserID(userTok.Str)).
			Str("doc_id", docID).
			Msg("User quota reached")
		return false
	}

	return true
}

// String identifies the matcher in startup logs.
func (m *Quota) String() string {
	return fmt.Sprintf("QuotaMatcher(checker=%v)", m.checker)
}
