// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

// Package proxyheader derives request facts from the headers a fronting
// proxy sets on authorization subrequests.
//
// The sidecar never sees the original request line. Everything it knows
// about the proxied request arrives in X-Original-URI and the X-Forwarded-*
// family, so every identifier and URL used during a decision is
// reconstructed here.
package proxyheader

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Headers set by the fronting proxy on authorization subrequests.
const (
	HeaderOriginalURI    = "X-Original-URI"
	HeaderForwardedHost  = "X-Forwarded-Host"
	HeaderForwardedProto = "X-Forwarded-Proto"
	HeaderForwardedPort  = "X-Forwarded-Port"
	HeaderPrefixStrip    = "X-Prefix-Strip"
)

var (
	// ErrNoOriginalURI indicates a subrequest without an X-Original-URI header.
	ErrNoOriginalURI = errors.New("missing x-original-uri header")

	// ErrNoForwardedHost indicates a subrequest without an X-Forwarded-Host header.
	ErrNoForwardedHost = errors.New("missing x-forwarded-host header")

	// ErrNoDocID indicates an original URI from which no document
	// identifier could be derived.
	ErrNoDocID = errors.New("no document identifier in original uri")
)

// fileIDPattern matches the last path component and captures the part
// before the file extension: /a/b/img-1.jpg captures img-1.
var fileIDPattern = regexp.MustCompile(`/([^/]+)\.[\w]+$`)

// pageSuffixPattern matches a trailing page suffix such as -p0007.
var pageSuffixPattern = regexp.MustCompile(`-p\d+$`)

// Audience reconstructs the external URL at which the client reached the
// proxy, in the form {proto}://{host}[:{port}]. The port is omitted when it
// is empty or a scheme default (80, 443). Returns an empty string when the
// forwarded host or protocol is missing, which callers treat as "no audience
// derivable from this request".
func Audience(r *http.Request) string {
	host := r.Header.Get(HeaderForwardedHost)
	proto := r.Header.Get(HeaderForwardedProto)
	if host == "" || proto == "" {
		return ""
	}

	port := r.Header.Get(HeaderForwardedPort)
	if port != "" && port != "80" && port != "443" {
		return fmt.Sprintf("%s://%s:%s", proto, host, port)
	}
	return fmt.Sprintf("%s://%s", proto, host)
}

// OriginalURL rebuilds the full URL of the proxied request from the
// X-Original-URI and X-Forwarded-Host headers. The scheme is https only
// when X-Forwarded-Proto says https, anything else falls back to http.
func OriginalURL(r *http.Request) (string, error) {
	uri := r.Header.Get(HeaderOriginalURI)
	if uri == "" {
		return "", ErrNoOriginalURI
	}

	host := r.Header.Get(HeaderForwardedHost)
	if host == "" {
		return "", ErrNoForwardedHost
	}

	scheme := "http"
	if r.Header.Get(HeaderForwardedProto) == "https" {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s%s", scheme, host, uri), nil
}

// DocID extracts a document identifier from the last path component of
// X-Original-URI, dropping the file extension:
//
//	/foo/bar/baz/img-1.jpg -> img-1
//	/foo/bar/baz/audio-1.mp3 -> audio-1
func DocID(r *http.Request) (string, error) {
	path := r.Header.Get(HeaderOriginalURI)
	if path == "" {
		return "", ErrNoOriginalURI
	}

	match := fileIDPattern.FindStringSubmatch(path)
	if match == nil {
		return "", fmt.Errorf("%w: %s", ErrNoDocID, path)
	}
	return match[1], nil
}

// IIIFDocID extracts a document identifier from an IIIF image URI carried
// in X-Original-URI. IIIF URIs have the form
// /{id}/{region}/{size}/{rotation}/{quality}.{format} or shorter forms like
// /{id}/info.json, so the identifier is the first path segment.
//
// When the proxy sets X-Prefix-Strip, its value is a comma-separated list
// of path prefixes and the first one matching the URI is removed before the
// identifier is read.
func IIIFDocID(r *http.Request) (string, error) {
	path := r.Header.Get(HeaderOriginalURI)
	if path == "" {
		return "", ErrNoOriginalURI
	}

	if strip := r.Header.Get(HeaderPrefixStrip); strip != "" {
		for _, prefix := range strings.Split(strip, ",") {
			if strings.HasPrefix(path, prefix) {
				path = path[len(prefix):]
				break
			}
		}
	}

	docID, _, _ := strings.Cut(strings.Trim(path, "/"), "/")
	if docID == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDocID, path)
	}
	return docID, nil
}

// IIIFDocIDWildcardPage extracts an IIIF document identifier and replaces a
// trailing page suffix with a wildcard, so one index entry covers every
// page of a multi-page document:
//
//	EXP-1829-03-26-a-p0007 -> EXP-1829-03-26-a-*
func IIIFDocIDWildcardPage(r *http.Request) (string, error) {
	docID, err := IIIFDocID(r)
	if err != nil {
		return "", err
	}
	return pageSuffixPattern.ReplaceAllString(docID, "-*"), nil
}
