package provider

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/resilience"
	"github.com/sells-group/rfp-intel/pkg/perplexity"
)

// PerplexityProvider answers search queries through Perplexity's
// web-grounded chat completions, attributing claims to the sources the
// model consulted.
type PerplexityProvider struct {
	client     perplexity.Client
	ownDomains []string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewPerplexityProvider creates a Perplexity search adapter. A nil client
// means no credential is configured; calls then fail fast with a 401.
func NewPerplexityProvider(client perplexity.Client, ownDomains []string) *PerplexityProvider {
	return &PerplexityProvider{
		client:     client,
		ownDomains: ownDomains,
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		retry:      resilience.DefaultRetryConfig(),
	}
}

func (p *PerplexityProvider) Name() string { return NamePerplexity }

// Search implements SearchProvider.
func (p *PerplexityProvider) Search(ctx context.Context, q Query) ([]model.ProviderDocument, error) {
	if p.client == nil {
		return nil, resilience.NewProviderError(NamePerplexity, http.StatusUnauthorized, eris.New("no api key configured"))
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, resilience.NewProviderError(NamePerplexity, 0, eris.Wrap(err, "rate limiter"))
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		r, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
			Messages: []perplexity.Message{
				{Role: "system", Content: "Answer factually and concisely based on current web sources."},
				{Role: "user", Content: q.Text},
			},
		})
		if err != nil {
			return nil, toProviderError(NamePerplexity, err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	answer := ""
	if len(resp.Choices) > 0 {
		answer = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if answer == "" {
		return nil, nil
	}

	docs := make([]model.ProviderDocument, 0, maxDocsPerQuery)
	for i, src := range resp.SearchResults {
		if src.URL == "" {
			continue
		}
		tier, category := ClassifySource(src.URL, p.ownDomains)
		value := src.Title
		if i == 0 {
			// Attribute the synthesized answer to the top source.
			value = truncate(answer, 300)
		}
		docs = append(docs, model.ProviderDocument{
			Key:        q.ClaimKey,
			Value:      value,
			Source:     src.URL,
			Tier:       tier,
			SourceDate: parseSourceDate(src.Date),
			Category:   category,
		})
		if len(docs) >= maxDocsPerQuery {
			break
		}
	}

	// Answer with no attributed sources still counts as one generic claim.
	if len(docs) == 0 {
		docs = append(docs, model.ProviderDocument{
			Key:      q.ClaimKey,
			Value:    truncate(answer, 300),
			Source:   NamePerplexity,
			Tier:     TierWeak,
			Category: model.CategoryGeneric,
		})
	}
	return docs, nil
}
