// Claviger - Content Authorization Sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/claviger

package decision

import (
	"context"
	"fmt"

	"github.com/tomtom215/claviger/internal/config"
	"github.com/tomtom215/claviger/internal/extractor"
	"github.com/tomtom215/claviger/internal/logging"
	"github.com/tomtom215/claviger/internal/matcher"
	"github.com/tomtom215/claviger/internal/proxyheader"
	"github.com/tomtom215/claviger/internal/quota"
	"github.com/tomtom215/claviger/internal/solr"
)

// Production wiring of the index-backed extractor: which collection
// field carries the document's permission mask and which field the
// document id is matched against.
const (
	solrRightsField = "rights_bm_get_img_l"
	solrIDField     = "page_id_ss"

	// manifestMetadataField is the IIIF manifest metadata label that
	// carries the document's permission mask.
	manifestMetadataField = "explore_bitmaps"
)

// Components is the assembled decision machinery plus the long-lived
// clients behind it. The clients are owned here so the caller has one
// handle to close on shutdown.
type Components struct {
	Pipeline *Pipeline

	// Solr is nil when the index-backed extractor is not configured.
	Solr *solr.Client

	// QuotaChecker is the Null checker when no quota store is configured.
	QuotaChecker quota.Checker

	quotaStore *quota.Redis
}

// Build wires the extractor and matcher registries from configuration.
//
// Every route name is always registered; a strategy whose prerequisites
// are missing from the configuration is replaced with its null variant,
// which denies. Partial configuration of a strategy is rejected earlier,
// by config validation, so a half-configured index never degrades
// silently.
func Build(cfg *config.Config) (*Components, error) {
	c := &Components{QuotaChecker: quota.NewNull()}

	if cfg.Solr.Enabled() {
		client, err := solr.New(&cfg.Solr)
		if err != nil {
			return nil, fmt.Errorf("failed to build solr client: %w", err)
		}
		c.Solr = client
	}

	if cfg.Redis.Enabled() {
		store, err := quota.NewRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to build quota checker: %w", err)
		}
		c.quotaStore = store
		c.QuotaChecker = store
	}

	extractors := map[string]extractor.Extractor{
		extractor.NameBearerToken:  extractor.NewBearerToken(),
		extractor.NameIIIFManifest: extractor.NewIIIFManifest(manifestMetadataField),
		extractor.NameIIIFURIDocID: extractor.NewIIIFURIDocID(),
		extractor.NameNull:         extractor.NewNull(),

		extractor.NameStaticSecret:       extractor.NewNull(),
		extractor.NameManifestWithSecret: extractor.NewNull(),
		extractor.NameCookieBitmap:       extractor.NewNull(),
		extractor.NameCookieUserID:       extractor.NewNull(),
		extractor.NameContentItemBitmap:  extractor.NewNull(),
	}

	if cfg.StaticSecretExtractorEnabled() {
		extractors[extractor.NameStaticSecret] = extractor.NewStaticSecret(cfg.StaticSecret)
	}
	if cfg.ManifestExtractorEnabled() {
		extractors[extractor.NameManifestWithSecret] = extractor.NewManifestWithSecret(cfg.StaticFilesPath)
	}
	if cfg.CookieExtractorsEnabled() {
		extractors[extractor.NameCookieBitmap] = extractor.NewCookieBitmap(cfg.CookieName, cfg.JWTSecret, cfg.JWTVerifyAudience)
		extractors[extractor.NameCookieUserID] = extractor.NewCookieUserID(cfg.CookieName, cfg.JWTSecret, cfg.JWTVerifyAudience)
	}
	if c.Solr != nil {
		extractors[extractor.NameContentItemBitmap] = extractor.NewSolrBitmap(
			c.Solr, cfg.Solr.ContentItemCollection, solrRightsField, solrIDField, proxyheader.IIIFDocID)
	}

	matchers := map[string]matcher.Matcher{
		matcher.NameEquality:   matcher.NewEquality(),
		matcher.NameBitwiseAnd: matcher.NewBitwiseAnd(),
		matcher.NameNull:       matcher.NewNull(),
	}

	// The quota matcher needs both the store and a way to attribute the
	// request to a user. Without them the name stays unregistered, so
	// with-quota-check routes skip the step instead of denying everyone.
	if cfg.QuotaMatcherEnabled() {
		matchers[matcher.NameQuota] = matcher.NewQuota(
			c.QuotaChecker,
			extractor.NewCookieUserID(cfg.CookieName, cfg.JWTSecret, cfg.JWTVerifyAudience),
			proxyheader.IIIFDocIDWildcardPage,
		)
	}

	for name, ext := range extractors {
		logging.Info().Str("name", name).Str("strategy", fmt.Sprintf("%v", ext)).Msg("Extractor registered")
	}
	for name, m := range matchers {
		logging.Info().Str("name", name).Str("strategy", fmt.Sprintf("%v", m)).Msg("Matcher registered")
	}

	c.Pipeline = NewPipeline(extractor.NewRegistry(extractors), matcher.NewRegistry(matchers))
	return c, nil
}

// Readiness probes the long-lived backends. Unconfigured backends are
// absent from the result.
func (c *Components) Readiness(ctx context.Context, solrCollection string) map[string]bool {
	status := make(map[string]bool)
	if c.Solr != nil {
		status["solr"] = c.Solr.Ping(ctx, solrCollection) == nil
	}
	if c.quotaStore != nil {
		status["redis"] = c.quotaStore.Ping(ctx) == nil
	}
	return status
}

// Close releases the long-lived clients.
func (c *Components) Close() {
	if c.Solr != nil {
		c.Solr.Close()
	}
	if c.quotaStore != nil {
		if err := c.quotaStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing quota store")
		}
	}
}
