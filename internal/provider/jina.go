package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/resilience"
	"github.com/sells-group/rfp-intel/pkg/jina"
)

// JinaProvider runs web searches through Jina AI Search.
type JinaProvider struct {
	client     jina.Client
	ownDomains []string
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewJinaProvider creates a Jina search adapter. A nil client means no
// credential is configured; calls then fail fast with a 401 ProviderError.
func NewJinaProvider(client jina.Client, ownDomains []string) *JinaProvider {
	return &JinaProvider{
		client:     client,
		ownDomains: ownDomains,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		retry:      resilience.DefaultRetryConfig(),
	}
}

func (p *JinaProvider) Name() string { return NameJina }

// Search implements SearchProvider.
func (p *JinaProvider) Search(ctx context.Context, q Query) ([]model.ProviderDocument, error) {
	if p.client == nil {
		return nil, resilience.NewProviderError(NameJina, http.StatusUnauthorized, eris.New("no api key configured"))
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, resilience.NewProviderError(NameJina, 0, eris.Wrap(err, "rate limiter"))
	}

	resp, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*jina.SearchResponse, error) {
		r, err := p.client.Search(ctx, q.Text)
		if err != nil {
			return nil, toProviderError(NameJina, err)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]model.ProviderDocument, 0, maxDocsPerQuery)
	for _, res := range resp.Data {
		if res.URL == "" {
			continue
		}
		tier, category := ClassifySource(res.URL, p.ownDomains)
		value := res.Title
		if res.Description != "" {
			value += " — " + res.Description
		}
		docs = append(docs, model.ProviderDocument{
			Key:        q.ClaimKey,
			Value:      truncate(value, 300),
			Source:     res.URL,
			Tier:       tier,
			SourceDate: parseSourceDate(res.Date),
			Category:   category,
		})
		if len(docs) >= maxDocsPerQuery {
			break
		}
	}
	return docs, nil
}

// httpStatusError is satisfied by every pkg client's APIError.
type httpStatusError interface {
	error
	HTTPStatus() int
}

// toProviderError converts a pkg client error into a typed ProviderError,
// pulling the HTTP status off the client's APIError when present.
func toProviderError(name string, err error) *resilience.ProviderError {
	if pe, ok := resilience.AsProviderError(err); ok {
		return pe
	}
	status := 0
	var se httpStatusError
	if errors.As(err, &se) {
		status = se.HTTPStatus()
	}
	return resilience.NewProviderError(name, status, err)
}
