// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/claviger/internal/bitmask"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/metrics"
	"github.com/tomtom215/claviger/internal/proxyheader"
)

const (
	// DefaultIIIFMetadataField is the manifest metadata label that
	// carries the permission bitmask.
	DefaultIIIFMetadataField = "explore_bitmaps"

	// manifestName replaces the file segment of the requested URL to
	// locate the manifest of the surrounding resource.
	manifestName = "manifest.json"

	manifestFetchTimeout = 10 * time.Second
)

// IIIFManifest fetches the Presentation API v3 manifest that sits next
// to the requested file and reads the permission bitmask from the first
// canvas' metadata.
//
// A missing manifest or a manifest without the metadata entry yields no
// token. Transport failures and unparseable manifests are returned as
// errors, matching the index extractor: infrastructure problems become
// 5xx, not silent denies.
type IIIFManifest struct {
	field  string
	client *http.Client
}

// NewIIIFManifest returns a manifest extractor reading the given
// metadata field. The extractor owns its HTTP client with a fixed 10s
// timeout so a slow manifest host cannot pin a worker.
func NewIIIFManifest(field string) *IIIFManifest {
	return &IIIFManifest{
		field:  field,
		client: &http.Client{Timeout: manifestFetchTimeout},
	}
}

// Extract fetches the manifest for the requested file and returns the
// configured metadata value as a mask token.
func (e *IIIFManifest) Extract(ctx context.Context, r *http.Request) (Token, error) {
	fileURL, err := proxyheader.OriginalURL(r)
	if err != nil {
		logging.CtxDebug(ctx).Msg("No file URL in request, manifest fetch skipped")
		return NoToken(), nil
	}

	manifest, ok, err := e.fetch(ctx, manifestURL(fileURL))
	if err != nil || !ok {
		return NoToken(), err
	}

	value, ok := bitmapValue(manifest, e.field)
	if !ok {
		logging.CtxDebug(ctx).Str("field", e.field).Msg("No bitmask entry in manifest metadata")
		return NoToken(), nil
	}

	mask, err := bitmask.Parse(value)
	if err != nil {
		return NoToken(), fmt.Errorf("manifest bitmask value: %w", err)
	}
	return MaskToken(mask), nil
}

// fetch downloads and decodes one manifest. The middle return value is
// false when the manifest host answered 404; any other non-200 status
// is an error, so a degraded host surfaces as 5xx instead of a deny.
func (e *IIIFManifest) fetch(ctx context.Context, manifestURL string) (*iiifManifest, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build manifest request: %w", err)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		metrics.RecordManifestFetch("error", time.Since(start))
		return nil, false, fmt.Errorf("fetch manifest %s: %w", manifestURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.RecordManifestFetch("miss", time.Since(start))
		logging.CtxDebug(ctx).Str("url", manifestURL).Msg("No manifest for resource")
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordManifestFetch("error", time.Since(start))
		return nil, false, fmt.Errorf("fetch manifest %s: unexpected status %d", manifestURL, resp.StatusCode)
	}

	var manifest iiifManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		metrics.RecordManifestFetch("error", time.Since(start))
		return nil, false, fmt.Errorf("decode manifest %s: %w", manifestURL, err)
	}

	metrics.RecordManifestFetch("ok", time.Since(start))
	return &manifest, true, nil
}

// Close releases idle connections held by the manifest client.
func (e *IIIFManifest) Close() {
	e.client.CloseIdleConnections()
}

// String identifies the extractor in startup logs.
func (e *IIIFManifest) String() string {
	return fmt.Sprintf("IIIFPresentationManifestExtractor(metadata_field=%s, timeout=%s)",
		e.field, manifestFetchTimeout)
}

// iiifManifest is the slice of a Presentation API v3 manifest the
// extractor cares about: canvases with language-mapped metadata.
type iiifManifest struct {
	Items []iiifCanvas `json:"items"`
}

type iiifCanvas struct {
	Metadata []iiifMetadata `json:"metadata"`
}

type iiifMetadata struct {
	Label map[string][]string `json:"label"`
	Value map[string][]string `json:"value"`
}

// manifestURL swaps the file segment of the requested URL for the
// manifest name, dropping any query and fragment.
func manifestURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil || u.Path == "" {
		return strings.TrimRight(fileURL, "/") + "/" + manifestName
	}

	dir := u.Path
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		dir = dir[:i]
	}
	u.Path = dir + "/" + manifestName
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// bitmapValue walks the first canvas' metadata for an entry labelled
// with the configured field in any language and returns its first
// value. Language keys are visited in sorted order so the result is
// stable across runs.
func bitmapValue(m *iiifManifest, field string) (string, bool) {
	if len(m.Items) == 0 {
		return "", false
	}

	for _, entry := range m.Items[0].Metadata {
		if !labelMatches(entry.Label, field) {
			continue
		}

		langs := make([]string, 0, len(entry.Value))
		for lang := range entry.Value {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		for _, lang := range langs {
			if values := entry.Value[lang]; len(values) > 0 {
				return values[0], true
			}
		}
	}
	return "", false
}

func labelMatches(label map[string][]string, field string) bool {
	for _, values := range label {
		for _, v := range values {
			if v == field {
				return true
			}
		}
	}
	return false
}
