package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/resilience"
	"github.com/sells-group/rfp-intel/pkg/firecrawl"
)

// FirecrawlCrawler fetches guessed official-site URLs. A page that resolves
// on the company's own domain is a tier 1 official claim.
type FirecrawlCrawler struct {
	client  firecrawl.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewFirecrawlCrawler creates the official-site crawler. A nil client means
// no credential is configured; calls then fail fast with a 401.
func NewFirecrawlCrawler(client firecrawl.Client) *FirecrawlCrawler {
	return &FirecrawlCrawler{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		retry:   resilience.DefaultRetryConfig(),
	}
}

func (c *FirecrawlCrawler) Name() string { return NameFirecrawl }

// Crawl implements SiteCrawler.
func (c *FirecrawlCrawler) Crawl(ctx context.Context, targetURL string) ([]model.ProviderDocument, error) {
	if c.client == nil {
		return nil, resilience.NewProviderError(NameFirecrawl, http.StatusUnauthorized, eris.New("no api key configured"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, resilience.NewProviderError(NameFirecrawl, 0, eris.Wrap(err, "rate limiter"))
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		r, err := c.client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:     targetURL,
			Formats: []string{"markdown"},
		})
		if err != nil {
			return nil, toProviderError(NameFirecrawl, err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, resilience.NewProviderError(NameFirecrawl, 0, eris.Errorf("scrape not successful for %s", targetURL))
	}

	content := strings.TrimSpace(resp.Data.Markdown)
	if len(content) < 80 {
		// Parked or empty page — not evidence of anything.
		return nil, nil
	}

	docs := []model.ProviderDocument{{
		Key:      "official_site",
		Value:    truncate(resp.Data.Title+" — "+content, 300),
		Source:   resp.Data.URL,
		Tier:     TierOfficial,
		Category: model.CategoryOfficial,
	}}
	return docs, nil
}
