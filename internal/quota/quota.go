// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package quota tracks distinct document accesses per user inside a
// rolling time window.
//
// The Redis implementation keeps one bloom filter, one counter, and one
// window anchor per user, updated atomically by a Lua script. Re-reading
// a document already seen this window never consumes quota, and a denied
// document stays denied for the rest of the window.
//
// Checker errors are returned to the caller; the quota matcher is the
// layer that decides to fail open on them.
package quota

import "context"

// Status is the outcome of a quota check.
type Status string

const (
	// StatusBelowQuota means the user may access the document.
	StatusBelowQuota Status = "below_quota"

	// StatusQuotaReached means the document is new and the user has
	// exhausted the window's allowance.
	StatusQuotaReached Status = "quota_reached"
)

// Checker reports whether a user may access one more document.
type Checker interface {
	// Check returns StatusBelowQuota when access is allowed and
	// StatusQuotaReached when the window allowance is exhausted for a
	// previously unseen document.
	Check(ctx context.Context, userID, docID string) (Status, error)
}

// Null is a Checker that always allows access. It stands in when no
// quota store is configured.
type Null struct{}

// NewNull returns the always-allowing checker.
func NewNull() *Null {
	return &Null{}
}

// Check always returns StatusBelowQuota.
func (n *Null) Check(_ context.Context, _, _ string) (Status, error) {
	return StatusBelowQuota, nil
}

// String identifies the checker in startup logs.
func (n *Null) String() string {
	return "NullQuotaChecker()"
}
