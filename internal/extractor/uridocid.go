// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"net/http"

	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/proxyheader"
)

// IIIFURIDocID returns the document id segment of the proxied IIIF path
// as a string token. It never errors.
type IIIFURIDocID struct{}

// NewIIIFURIDocID returns the IIIF path document id extractor.
func NewIIIFURIDocID() *IIIFURIDocID {
	return &IIIFURIDocID{}
}

// Extract parses the document id out of the X-Original-URI header.
func (e *IIIFURIDocID) Extract(ctx context.Context, r *http.Request) (Token, error) {
	docID, err := proxyheader.IIIFDocID(r)
	if err != nil || docID == "" {
		logging.CtxWarn(ctx).Msg("Failed to extract document id from IIIF path")
		return NoToken(), nil
	}

	logging.CtxDebug(ctx).Str("doc_id", docID).Msg("Extracted document id from IIIF path")
	return StringToken(docID), nil
}

// String identifies the extractor in startup logs.
func (e *IIIFURIDocID) String() string {
	return "IIIFUriDocIdExtractor()"
}
