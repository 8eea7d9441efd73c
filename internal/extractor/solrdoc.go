// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/claviger/internal/bitmask"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/solr"
)

// DocIDFunc derives the document id a request refers to, usually from
// the X-Original-URI proxy header.
type DocIDFunc func(r *http.Request) (string, error)

// SolrBitmap looks the requested document up in the index and returns
// one of its fields as a permission bitmask.
//
// A request without a document id and a document without the field both
// yield no token. Index transport failures are returned as errors, so a
// broken index shows up as 5xx rather than a blanket deny.
type SolrBitmap struct {
	client     *solr.Client
	collection string
	field      string
	idField    string
	docID      DocIDFunc
}

// NewSolrBitmap returns an index-backed extractor. docID derives the
// lookup key from the request; field is read off the matched document.
func NewSolrBitmap(client *solr.Client, collection, field, idField string, docID DocIDFunc) *SolrBitmap {
	return &SolrBitmap{
		client:     client,
		collection: collection,
		field:      field,
		idField:    idField,
		docID:      docID,
	}
}

// Extract queries the index for the requested document and returns its
// bitmask field as a mask token.
func (e *SolrBitmap) Extract(ctx context.Context, r *http.Request) (Token, error) {
	docID, err := e.docID(r)
	if err != nil || docID == "" {
		logging.CtxDebug(ctx).Msg("No document id in request, index lookup skipped")
		return NoToken(), nil
	}

	raw, err := e.client.Search(ctx, e.collection, solr.SearchOptions{
		Query:  e.idField + ":" + docID,
		Fields: []string{e.field},
		Rows:   1,
	})
	if err != nil {
		return NoToken(), fmt.Errorf("index lookup for document %q failed: %w", docID, err)
	}

	resp, err := solr.DecodeSelect(raw)
	if err != nil {
		return NoToken(), fmt.Errorf("index response for document %q: %w", docID, err)
	}
	if len(resp.Response.Docs) == 0 {
		logging.CtxDebug(ctx).Str("doc_id", docID).Msg("Document not found in index")
		return NoToken(), nil
	}

	mask, ok, err := maskFromDocument(resp.Response.Docs[0], e.field)
	if err != nil {
		return NoToken(), fmt.Errorf("document %q field %q: %w", docID, e.field, err)
	}
	if !ok {
		logging.CtxDebug(ctx).Str("doc_id", docID).Str("field", e.field).
			Msg("Document has no bitmask field")
		return NoToken(), nil
	}

	return MaskToken(mask), nil
}

// maskFromDocument reads the named field as a bitmask. Numeric fields
// are taken verbatim as 64-bit values; string fields go through
// bitmask.Parse, which accepts binary digit strings and base64. The
// second return value is false when the field is absent or null.
func maskFromDocument(doc solr.Document, field string) (bitmask.BitMask64, bool, error) {
	raw, ok := doc[field]
	if !ok {
		return 0, false, nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, false, nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		s, _, err := doc.Text(field)
		if err != nil {
			return 0, true, err
		}
		mask, err := bitmask.Parse(s)
		if err != nil {
			return 0, true, err
		}
		return mask, true, nil
	}

	v, _, err := doc.Uint64(field)
	if err != nil {
		return 0, true, err
	}
	return bitmask.FromInt(v), true, nil
}

// String identifies the extractor in startup logs. Credentials render
// through the client's redacted form.
func (e *SolrBitmap) String() string {
	return fmt.Sprintf("SolrBitmapExtractor(collection=%s, field=%s, id_field=%s, auth=%s)",
		e.collection, e.field, e.idField, e.client.AuthenticationDetails())
}
