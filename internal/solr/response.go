// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package solr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// SelectResponse is the standard shape of a select handler response.
type SelectResponse struct {
	ResponseHeader ResponseHeader `json:"responseHeader"`
	Response       ResultSet      `json:"response"`
}

// ResponseHeader carries query bookkeeping from the index.
type ResponseHeader struct {
	Status int `json:"status"`
	QTime  int `json:"QTime"`
}

// ResultSet is the matched-document window of a select response.
type ResultSet struct {
	NumFound int64      `json:"numFound"`
	Start    int64      `json:"start"`
	Docs     []Document `json:"docs"`
}

// Document is a single index document. Fields stay as raw JSON so that
// 64-bit longs survive without passing through float64.
type Document map[string]json.RawMessage

// DecodeSelect parses the raw bytes of a select handler response.
func DecodeSelect(raw []byte) (*SelectResponse, error) {
	var resp SelectResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode solr select response: %w", err)
	}
	return &resp, nil
}

// Uint64 returns the named field as an unsigned 64-bit integer. The second
// return value reports whether the field is present and non-null. Values
// are parsed from the raw JSON text, so longs above 2^53 keep full
// precision.
func (d Document) Uint64(field string) (uint64, bool, error) {
	raw, ok := d[field]
	if !ok {
		return 0, false, nil
	}

	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, false, nil
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("field %q is not an unsigned integer: %w", field, err)
	}
	return v, true, nil
}

// Text returns the named field as a string. The second return value
// reports whether the field is present and non-null.
func (d Document) Text(field string) (string, bool, error) {
	raw, ok := d[field]
	if !ok {
		return "", false, nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", true, fmt.Errorf("field %q is not a string: %w", field, err)
	}
	return s, true, nil
}
