// Package provider adapts external search and crawl backends to a uniform
// claim-producing interface. Every adapter failure is a typed
// *resilience.ProviderError so the orchestrator can read status codes,
// retry counts, and rate-limit signals without parsing messages.
package provider

import (
	"context"

	"github.com/sells-group/rfp-intel/internal/model"
)

// Provider names, also used as registry/breaker keys.
const (
	NameJina         = "jina"
	NamePerplexity   = "perplexity"
	NameGooglePlaces = "google_places"
	NameFirecrawl    = "firecrawl"
)

// Query is one planned search passed to a search provider.
type Query struct {
	Text     string
	ClaimKey string // semantic claim name the results answer
	Lang     string // "en" or "ar"
}

// SearchProvider executes web searches and returns typed, sourced claims.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]model.ProviderDocument, error)
}

// SiteCrawler fetches a single guessed official-site URL. It is not part of
// the search failover chain.
type SiteCrawler interface {
	Name() string
	Crawl(ctx context.Context, targetURL string) ([]model.ProviderDocument, error)
}

// maxDocsPerQuery caps how many claims one search contributes.
const maxDocsPerQuery = 5
