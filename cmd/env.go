package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/provider"
	"github.com/sells-group/rfp-intel/internal/queryplan"
	"github.com/sells-group/rfp-intel/internal/registry"
	"github.com/sells-group/rfp-intel/internal/research"
	"github.com/sells-group/rfp-intel/internal/resilience"
	"github.com/sells-group/rfp-intel/internal/store"
	anthropicpkg "github.com/sells-group/rfp-intel/pkg/anthropic"
	"github.com/sells-group/rfp-intel/pkg/firecrawl"
	"github.com/sells-group/rfp-intel/pkg/google"
	"github.com/sells-group/rfp-intel/pkg/jina"
	"github.com/sells-group/rfp-intel/pkg/perplexity"
)

// initStore opens and migrates the run archive.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newRegistry builds the shared provider registry from config and seeds it
// with persisted health scores so rankings survive restarts.
func newRegistry(ctx context.Context, st *store.SQLiteStore) *registry.Registry {
	regCfg := registry.DefaultConfig()
	regCfg.EWMAAlpha = cfg.Research.EWMAAlpha
	regCfg.Breaker = resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Research.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.Research.ResetTimeoutSecs) * time.Second,
		SuccessThreshold: cfg.Research.SuccessThreshold,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("breaker state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	reg := registry.New(regCfg)

	if st != nil {
		snapshots, err := st.LoadHealth(ctx)
		if err != nil {
			zap.L().Warn("loading persisted provider health failed", zap.Error(err))
			return reg
		}
		for _, h := range snapshots {
			reg.SeedHealth(h.Provider, h.HealthScore)
		}
	}
	return reg
}

// newEngine assembles a research engine for one input. ownDomains feed the
// source-tier classifier so the client's own site ranks as official.
func newEngine(reg *registry.Registry, input model.ResearchInput) *research.Engine {
	ownDomains := provider.GuessDomains(input.ClientName, input.Country)

	var providers []provider.SearchProvider
	if cfg.Jina.Key != "" {
		client := jina.NewClient(cfg.Jina.Key,
			jina.WithBaseURL(cfg.Jina.BaseURL),
			jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		providers = append(providers, provider.NewJinaProvider(client, ownDomains))
	}
	if cfg.Perplexity.Key != "" {
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model))
		providers = append(providers, provider.NewPerplexityProvider(client, ownDomains))
	}
	if cfg.Google.Key != "" {
		client := google.NewClient(cfg.Google.Key, google.WithBaseURL(cfg.Google.BaseURL))
		providers = append(providers, provider.NewPlacesProvider(client))
	}

	var llm anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		llm = anthropicpkg.NewClient(cfg.Anthropic.Key)
	}
	planner := queryplan.NewPlanner(llm, cfg.Anthropic.Model)

	opts := []research.Option{
		research.WithMaxConcurrent(cfg.Research.MaxConcurrentQueries),
	}
	if cfg.Firecrawl.Key != "" {
		client := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		opts = append(opts, research.WithCrawler(provider.NewFirecrawlCrawler(client)))
	}
	if cfg.Research.FreshnessPolicyPath != "" {
		policy, err := research.LoadFreshnessPolicy(cfg.Research.FreshnessPolicyPath)
		if err != nil {
			zap.L().Warn("freshness policy load failed, using defaults", zap.Error(err))
		}
		opts = append(opts, research.WithFreshnessPolicy(policy))
	}

	return research.NewEngine(planner, providers, reg, opts...)
}

// archiveRun persists the run outcome and the registry's health scores.
// Best-effort: archival failures are logged, never returned.
func archiveRun(ctx context.Context, st *store.SQLiteStore, reg *registry.Registry, client string, result *model.ClientResearchV1) {
	if st == nil {
		return
	}

	status := store.RunStatusComplete
	if result == nil {
		status = store.RunStatusFailed
	}
	if _, err := st.SaveRun(ctx, client, status, result); err != nil {
		zap.L().Warn("archiving run failed", zap.Error(err))
	}
	for name, health := range reg.Snapshot() {
		if err := st.UpsertHealth(ctx, name, health.HealthScore); err != nil {
			zap.L().Warn("persisting provider health failed",
				zap.String("provider", name), zap.Error(err))
		}
	}
}
