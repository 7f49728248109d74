// Package research orchestrates the full client-research run: query
// planning, ranked provider failover, trust resolution, and result assembly.
package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/provider"
	"github.com/sells-group/rfp-intel/internal/queryplan"
	"github.com/sells-group/rfp-intel/internal/registry"
	"github.com/sells-group/rfp-intel/internal/resilience"
)

const (
	defaultMaxConcurrent = 4
	maxCrawlDomains      = 3
)

// Engine runs research for one client organization at a time.
type Engine struct {
	planner   *queryplan.Planner
	providers []provider.SearchProvider
	crawler   provider.SiteCrawler
	registry  *registry.Registry
	freshness FreshnessPolicy

	maxConcurrent int
	nowFunc       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxConcurrent bounds how many queries run in parallel.
func WithMaxConcurrent(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrent = n
		}
	}
}

// WithCrawler enables the official-site crawl pass.
func WithCrawler(c provider.SiteCrawler) Option {
	return func(e *Engine) { e.crawler = c }
}

// WithFreshnessPolicy overrides the default decay schedule.
func WithFreshnessPolicy(p FreshnessPolicy) Option {
	return func(e *Engine) { e.freshness = p }
}

// WithNow injects a clock for tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = now }
}

// NewEngine wires the orchestrator. providers is the full candidate set;
// per-query order comes from the registry's health ranking.
func NewEngine(planner *queryplan.Planner, providers []provider.SearchProvider, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		planner:       planner,
		providers:     providers,
		registry:      reg,
		freshness:     DefaultFreshnessPolicy(),
		maxConcurrent: defaultMaxConcurrent,
		nowFunc:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Research executes one full run. It returns ErrNoDocuments only when every
// query exhausted every provider and the crawl pass found nothing; partial
// results are returned with warnings instead of an error.
func (e *Engine) Research(ctx context.Context, input model.ResearchInput) (*model.ClientResearchV1, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	started := e.nowFunc()
	plan := e.planner.Generate(ctx, input)
	queries := plan.All()

	zap.L().Info("research run started",
		zap.String("analysis_id", input.AnalysisID),
		zap.String("client_name", input.ClientName),
		zap.Int("queries", len(queries)))

	stats := NewRunStats()

	var (
		mu       sync.Mutex
		docs     []model.ProviderDocument
		warnings []string
	)
	addDocs := func(d []model.ProviderDocument) {
		mu.Lock()
		docs = append(docs, d...)
		mu.Unlock()
	}
	addWarning := func(w string) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrent)
	for _, q := range queries {
		g.Go(func() error {
			found, err := e.runQuery(gctx, q, stats)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				addWarning(fmt.Sprintf("no results for query: %s", truncateQuery(q.Text)))
				return nil
			}
			addDocs(found)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if e.crawler != nil {
		crawlDocs, crawlWarnings := e.crawlOfficialSites(ctx, input, stats)
		addDocs(crawlDocs)
		for _, w := range crawlWarnings {
			addWarning(w)
		}
	}

	if len(docs) == 0 {
		zap.L().Warn("research run exhausted all providers",
			zap.String("analysis_id", input.AnalysisID))
		return nil, ErrNoDocuments
	}

	claims := ResolveClaims(docs, e.freshness, e.nowFunc())
	result := assembleResult(input, plan, claims, stats, e.registry, warnings, e.nowFunc())

	zap.L().Info("research run finished",
		zap.String("analysis_id", input.AnalysisID),
		zap.Int("documents", len(docs)),
		zap.Int("claims", len(claims)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", e.nowFunc().Sub(started)))
	return result, nil
}

// runQuery walks the health-ranked provider list until one returns documents.
// An empty success keeps walking; a failure records the outcome and keeps
// walking. Returning no documents is not an error at the query level.
func (e *Engine) runQuery(ctx context.Context, q provider.Query, stats *RunStats) ([]model.ProviderDocument, error) {
	byName := make(map[string]provider.SearchProvider, len(e.providers))
	names := make([]string, 0, len(e.providers))
	for _, p := range e.providers {
		byName[p.Name()] = p
		names = append(names, p.Name())
	}

	for _, name := range e.registry.Rank(names) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p := byName[name]
		if !e.registry.Breaker(name).CanExecute() {
			zap.L().Debug("provider skipped by open breaker",
				zap.String("provider", name),
				zap.String("claim_key", q.ClaimKey))
			continue
		}

		stats.Attempt(name)
		callStart := e.nowFunc()
		found, err := p.Search(ctx, q)
		latency := e.nowFunc().Sub(callStart)

		if err != nil {
			stats.Failure(name, err.Error(), resilience.RetriesFrom(err), resilience.IsRateLimited(err))
			e.registry.RecordOutcome(name, registry.Outcome{
				OK:          false,
				Latency:     latency,
				StatusCode:  resilience.StatusCodeFrom(err),
				RateLimited: resilience.IsRateLimited(err),
			})
			zap.L().Warn("provider search failed",
				zap.String("provider", name),
				zap.String("claim_key", q.ClaimKey),
				zap.Error(err))
			continue
		}

		stats.Success(name, latency)
		e.registry.RecordOutcome(name, registry.Outcome{OK: true, Latency: latency})
		if len(found) > 0 {
			return found, nil
		}
	}
	return nil, nil
}

// crawlOfficialSites probes guessed official domains with the site crawler.
// Best-effort: failures become warnings, never run-level errors.
func (e *Engine) crawlOfficialSites(ctx context.Context, input model.ResearchInput, stats *RunStats) ([]model.ProviderDocument, []string) {
	domains := provider.GuessDomains(input.ClientName, input.Country)
	if len(domains) > maxCrawlDomains {
		domains = domains[:maxCrawlDomains]
	}

	name := e.crawler.Name()
	var (
		docs     []model.ProviderDocument
		warnings []string
	)
	for _, domain := range domains {
		if ctx.Err() != nil {
			break
		}
		if !e.registry.Breaker(name).CanExecute() {
			break
		}

		stats.Attempt(name)
		callStart := e.nowFunc()
		found, err := e.crawler.Crawl(ctx, "https://"+domain)
		latency := e.nowFunc().Sub(callStart)

		if err != nil {
			stats.Failure(name, err.Error(), resilience.RetriesFrom(err), resilience.IsRateLimited(err))
			e.registry.RecordOutcome(name, registry.Outcome{
				OK:          false,
				Latency:     latency,
				StatusCode:  resilience.StatusCodeFrom(err),
				RateLimited: resilience.IsRateLimited(err),
			})
			warnings = append(warnings, fmt.Sprintf("official site crawl failed for %s", domain))
			continue
		}

		stats.Success(name, latency)
		e.registry.RecordOutcome(name, registry.Outcome{OK: true, Latency: latency})
		if len(found) > 0 {
			docs = append(docs, found...)
			break
		}
	}
	return docs, warnings
}

func truncateQuery(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
