package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/resilience"
	"github.com/sells-group/rfp-intel/pkg/google"
)

// PlacesProvider checks business-listing presence via Google Places text
// search. Listing data is operator-maintained, so it ranks as tier 2
// official rather than tier 1.
type PlacesProvider struct {
	client  google.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewPlacesProvider creates a Google Places adapter. A nil client means no
// credential is configured; calls then fail fast with a 401.
func NewPlacesProvider(client google.Client) *PlacesProvider {
	return &PlacesProvider{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		retry:   resilience.DefaultRetryConfig(),
	}
}

func (p *PlacesProvider) Name() string { return NameGooglePlaces }

// Search implements SearchProvider.
func (p *PlacesProvider) Search(ctx context.Context, q Query) ([]model.ProviderDocument, error) {
	if p.client == nil {
		return nil, resilience.NewProviderError(NameGooglePlaces, http.StatusUnauthorized, eris.New("no api key configured"))
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, resilience.NewProviderError(NameGooglePlaces, 0, eris.Wrap(err, "rate limiter"))
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*google.TextSearchResponse, error) {
		r, err := p.client.TextSearch(ctx, q.Text)
		if err != nil {
			return nil, toProviderError(NameGooglePlaces, err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]model.ProviderDocument, 0, maxDocsPerQuery)
	for _, place := range resp.Places {
		value := place.DisplayName.Text
		if place.FormattedAddress != "" {
			value += ", " + place.FormattedAddress
		}
		if place.BusinessStatus != "" {
			value += " (" + place.BusinessStatus + ")"
		}
		if place.UserRatingCount > 0 {
			value += fmt.Sprintf(" — rated %.1f by %d users", place.Rating, place.UserRatingCount)
		}

		source := place.WebsiteURI
		if source == "" {
			source = "places.googleapis.com"
		}
		docs = append(docs, model.ProviderDocument{
			Key:      q.ClaimKey,
			Value:    truncate(value, 300),
			Source:   source,
			Tier:     TierNews, // operator-maintained listing: solid but not registry-grade
			Category: model.CategoryOfficial,
		})
		if len(docs) >= maxDocsPerQuery {
			break
		}
	}
	return docs, nil
}
