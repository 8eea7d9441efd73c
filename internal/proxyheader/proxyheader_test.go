// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package proxyheader

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestAudience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name: "custom port",
			headers: map[string]string{
				HeaderForwardedProto: "https",
				HeaderForwardedHost:  "images.example.org",
				HeaderForwardedPort:  "8443",
			},
			expected: "https://images.example.org:8443",
		},
		{
			name: "default https port omitted",
			headers: map[string]string{
				HeaderForwardedProto: "https",
				HeaderForwardedHost:  "images.example.org",
				HeaderForwardedPort:  "443",
			},
			expected: "https://images.example.org",
		},
		{
			name: "default http port omitted",
			headers: map[string]string{
				HeaderForwardedProto: "http",
				HeaderForwardedHost:  "images.example.org",
				HeaderForwardedPort:  "80",
			},
			expected: "http://images.example.org",
		},
		{
			name: "no port header",
			headers: map[string]string{
				HeaderForwardedProto: "https",
				HeaderForwardedHost:  "images.example.org",
			},
			expected: "https://images.example.org",
		},
		{
			name: "missing host",
			headers: map[string]string{
				HeaderForwardedProto: "https",
			},
			expected: "",
		},
		{
			name: "missing proto",
			headers: map[string]string{
				HeaderForwardedHost: "images.example.org",
			},
			expected: "",
		},
		{
			name:     "no headers",
			headers:  map[string]string{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := Audience(r); got != tt.expected {
				t.Errorf("Audience() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOriginalURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
		wantErr  error
	}{
		{
			name: "https",
			headers: map[string]string{
				HeaderOriginalURI:    "/iiif/img-1/info.json",
				HeaderForwardedHost:  "images.example.org",
				HeaderForwardedProto: "https",
			},
			expected: "https://images.example.org/iiif/img-1/info.json",
		},
		{
			name: "http",
			headers: map[string]string{
				HeaderOriginalURI:    "/iiif/img-1/info.json",
				HeaderForwardedHost:  "images.example.org",
				HeaderForwardedProto: "http",
			},
			expected: "http://images.example.org/iiif/img-1/info.json",
		},
		{
			name: "unknown proto falls back to http",
			headers: map[string]string{
				HeaderOriginalURI:   "/iiif/img-1/info.json",
				HeaderForwardedHost: "images.example.org",
			},
			expected: "http://images.example.org/iiif/img-1/info.json",
		},
		{
			name: "missing original uri",
			headers: map[string]string{
				HeaderForwardedHost: "images.example.org",
			},
			wantErr: ErrNoOriginalURI,
		},
		{
			name: "missing host",
			headers: map[string]string{
				HeaderOriginalURI: "/iiif/img-1/info.json",
			},
			wantErr: ErrNoForwardedHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got, err := OriginalURL(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("OriginalURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDocID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		expected string
		wantErr  error
	}{
		{"image file", "/foo/bar/baz/img-1.jpg", "img-1", nil},
		{"audio file", "/foo/bar/baz/audio-1.mp3", "audio-1", nil},
		{"no extension", "/foo/bar/baz/img-1", "", ErrNoDocID},
		{"trailing slash", "/foo/bar/", "", ErrNoDocID},
		{"missing header", "", "", ErrNoOriginalURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			if tt.uri != "" {
				r.Header.Set(HeaderOriginalURI, tt.uri)
			}

			got, err := DocID(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("DocID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIIIFDocID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		strip    string
		expected string
		wantErr  error
	}{
		{"info json", "/img-1/info.json", "", "img-1", nil},
		{"default jpg", "/img-1/default.jpg", "", "img-1", nil},
		{"full iiif uri", "/img-1/full/941,/0/default.jpg", "", "img-1", nil},
		{"prefix stripped", "/proxy/iiif/img-1/info.json", "/proxy/iiif", "img-1", nil},
		{"second prefix matches", "/proxy/iiif/img-1/info.json", "/other,/proxy/iiif", "img-1", nil},
		{"no prefix matches", "/img-1/info.json", "/proxy", "img-1", nil},
		{"bare slash", "/", "", "", ErrNoDocID},
		{"missing header", "", "", "", ErrNoOriginalURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			if tt.uri != "" {
				r.Header.Set(HeaderOriginalURI, tt.uri)
			}
			if tt.strip != "" {
				r.Header.Set(HeaderPrefixStrip, tt.strip)
			}

			got, err := IIIFDocID(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IIIFDocID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIIIFDocIDOnlyFirstPrefixStripped(t *testing.T) {
	t.Parallel()

	// Both prefixes match the URI start but only the first listed match is
	// removed.
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(HeaderOriginalURI, "/a/b/img-1/info.json")
	r.Header.Set(HeaderPrefixStrip, "/a,/a/b")

	got, err := IIIFDocID(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Errorf("expected first matching prefix only, got %q", got)
	}
}

func TestIIIFDocIDWildcardPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"page suffix replaced", "/EXP-1829-03-26-a-p0007/info.json", "EXP-1829-03-26-a-*"},
		{"no page suffix", "/EXP-1829-03-26-a/info.json", "EXP-1829-03-26-a"},
		{"page marker mid id", "/EXP-p12-a/info.json", "EXP-p12-a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set(HeaderOriginalURI, tt.uri)

			got, err := IIIFDocIDWildcardPage(r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("IIIFDocIDWildcardPage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIIIFDocIDWildcardPageMissingHeader(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)

	_, err := IIIFDocIDWildcardPage(r)
	if !errors.Is(err, ErrNoOriginalURI) {
		t.Errorf("expected ErrNoOriginalURI, got %v", err)
	}
}
