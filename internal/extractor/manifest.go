// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package extractor

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/proxyheader"
)

// manifestSuffix is appended to the requested file's stem to locate its
// sidecar manifest, e.g. video.mp4 -> video_manifest.json.
const manifestSuffix = "_manifest.json"

// ManifestWithSecret reads the per-resource secret from a JSON manifest
// stored next to the requested file under the static files root. Every
// filesystem or parse failure yields no token; the filesystem is never
// a reason for a 5xx.
type ManifestWithSecret struct {
	basePath string
}

// NewManifestWithSecret returns an extractor rooted at basePath.
func NewManifestWithSecret(basePath string) *ManifestWithSecret {
	return &ManifestWithSecret{basePath: filepath.Clean(basePath)}
}

// Extract resolves the requested path against the static files root and
// returns the "secret" field of the sidecar manifest as a string token.
func (e *ManifestWithSecret) Extract(ctx context.Context, r *http.Request) (Token, error) {
	uri := r.Header.Get(proxyheader.HeaderOriginalURI)
	if uri == "" {
		logging.CtxDebug(ctx).Msg("No X-Original-URI header, manifest lookup skipped")
		return NoToken(), nil
	}

	manifestPath, ok := e.manifestPath(uri)
	if !ok {
		logging.CtxWarn(ctx).Str("uri", uri).Msg("Requested path resolves outside the static files root")
		return NoToken(), nil
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.CtxDebug(ctx).Str("path", manifestPath).Msg("No manifest file for requested resource")
		} else {
			logging.CtxWarn(ctx).Err(err).Str("path", manifestPath).Msg("Failed to read manifest file")
		}
		return NoToken(), nil
	}

	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		logging.CtxWarn(ctx).Err(err).Str("path", manifestPath).Msg("Manifest file is not valid JSON")
		return NoToken(), nil
	}

	raw, ok := manifest["secret"]
	if !ok || string(raw) == "null" {
		logging.CtxDebug(ctx).Str("path", manifestPath).Msg("Manifest has no secret field")
		return NoToken(), nil
	}

	// Non-string secrets keep their JSON text, so numeric secrets
	// compare exactly against their bearer-token form.
	var secret string
	if err := json.Unmarshal(raw, &secret); err != nil {
		secret = string(raw)
	}
	return StringToken(secret), nil
}

// manifestPath maps the original request URI to the sidecar manifest
// path. The query and fragment are dropped, the remaining path is
// joined under the static files root, and the file extension is
// replaced with the manifest suffix. The second return value is false
// when the joined path escapes the root.
func (e *ManifestWithSecret) manifestPath(uri string) (string, bool) {
	path := uri
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if i := strings.IndexByte(path, '#'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/")

	full := filepath.Join(e.basePath, filepath.FromSlash(path))
	if !strings.HasPrefix(full, e.basePath+string(os.PathSeparator)) {
		return "", false
	}

	stem := strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))
	return filepath.Join(filepath.Dir(full), stem+manifestSuffix), true
}

// String identifies the extractor in startup logs.
func (e *ManifestWithSecret) String() string {
	return "ManifestWithSecretExtractor(base_path=" + e.basePath + ")"
}
