package research

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/provider"
	"github.com/sells-group/rfp-intel/internal/queryplan"
	"github.com/sells-group/rfp-intel/internal/registry"
	"github.com/sells-group/rfp-intel/internal/resilience"
)

type fakeSearcher struct {
	name string
	fn   func(q provider.Query) ([]model.ProviderDocument, error)

	mu    sync.Mutex
	calls int
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(_ context.Context, q provider.Query) ([]model.ProviderDocument, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(q)
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCrawler struct {
	fn func(url string) ([]model.ProviderDocument, error)
}

func (f *fakeCrawler) Name() string { return provider.NameFirecrawl }

func (f *fakeCrawler) Crawl(_ context.Context, url string) ([]model.ProviderDocument, error) {
	return f.fn(url)
}

func answering(name string) *fakeSearcher {
	return &fakeSearcher{
		name: name,
		fn: func(q provider.Query) ([]model.ProviderDocument, error) {
			return []model.ProviderDocument{{
				Key:      q.ClaimKey,
				Value:    "answer from " + name,
				Source:   "https://example.com/" + name,
				Tier:     3,
				Category: model.CategoryGeneric,
			}}, nil
		},
	}
}

func failing(name string, status int) *fakeSearcher {
	return &fakeSearcher{
		name: name,
		fn: func(provider.Query) ([]model.ProviderDocument, error) {
			return nil, resilience.NewProviderError(name, status, eris.New("upstream error"))
		},
	}
}

func empty(name string) *fakeSearcher {
	return &fakeSearcher{
		name: name,
		fn: func(provider.Query) ([]model.ProviderDocument, error) {
			return nil, nil
		},
	}
}

func testInput() model.ResearchInput {
	return model.ResearchInput{
		AnalysisID: "an-1",
		ClientName: "Acme Corp",
		Country:    "Saudi Arabia",
	}
}

func newTestEngine(reg *registry.Registry, providers []provider.SearchProvider, opts ...Option) *Engine {
	planner := queryplan.NewPlanner(nil, "")
	return NewEngine(planner, providers, reg, opts...)
}

func TestResearchFailsOverToNextProvider(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	bad := failing("jina", http.StatusServiceUnavailable)
	good := answering("perplexity")

	eng := newTestEngine(reg, []provider.SearchProvider{bad, good})
	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Profile)
	for _, field := range result.Profile {
		assert.Equal(t, "answer from perplexity", field.Value)
	}

	stats := result.ResearchMetadata.ProviderStats
	assert.Equal(t, model.ProviderStatusFailed, stats["jina"].FinalStatus)
	assert.Equal(t, model.ProviderStatusOK, stats["perplexity"].FinalStatus)
	assert.Equal(t, []string{"perplexity"}, result.ResearchMetadata.SourcesUsed)
}

func TestResearchPrefersHealthierProvider(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	reg.SeedHealth("perplexity", 0.9)
	reg.SeedHealth("jina", 0.2)

	first := answering("perplexity")
	second := answering("jina")

	eng := newTestEngine(reg, []provider.SearchProvider{second, first})
	_, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	// The healthier provider answers every query; the other is never needed.
	assert.Positive(t, first.callCount())
	assert.Zero(t, second.callCount())
}

func TestResearchFailoverStopsBeforeThirdProvider(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	reg.SeedHealth("jina", 0.9)
	reg.SeedHealth("perplexity", 0.5)
	reg.SeedHealth("google_places", 0.1)

	first := failing("jina", http.StatusServiceUnavailable)
	second := answering("perplexity")
	third := answering("google_places")

	eng := newTestEngine(reg, []provider.SearchProvider{first, second, third})
	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	stats := result.ResearchMetadata.ProviderStats
	assert.Positive(t, stats["jina"].Failures)
	assert.Equal(t, model.ProviderStatusFailed, stats["jina"].FinalStatus)
	assert.Positive(t, stats["perplexity"].Successes)
	assert.Equal(t, model.ProviderStatusOK, stats["perplexity"].FinalStatus)

	// The second provider answered every query, so the third was never touched.
	assert.Zero(t, third.callCount())
	assert.NotContains(t, stats, "google_places")
	assert.NotContains(t, result.ResearchMetadata.SourcesUsed, "google_places")
}

func TestResearchEmptySuccessContinuesWalking(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	reg.SeedHealth("jina", 0.9)
	reg.SeedHealth("perplexity", 0.2)

	hollow := empty("jina")
	good := answering("perplexity")

	eng := newTestEngine(reg, []provider.SearchProvider{hollow, good})
	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	assert.Positive(t, hollow.callCount())
	assert.NotEmpty(t, result.Profile)
	// Empty successes still count as ok outcomes, not failures.
	assert.Equal(t, model.ProviderStatusOK, result.ResearchMetadata.ProviderStats["jina"].FinalStatus)
}

func TestResearchAllProvidersExhausted(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	eng := newTestEngine(reg, []provider.SearchProvider{
		failing("jina", http.StatusBadGateway),
		failing("perplexity", http.StatusInternalServerError),
	})

	_, err := eng.Research(context.Background(), testInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.True(t, IsRetryable(err))
}

func TestResearchSkipsProviderWithOpenBreaker(t *testing.T) {
	cfg := registry.DefaultConfig()
	cfg.Breaker.FailureThreshold = 1
	reg := registry.New(cfg)

	// Trip the breaker before the run.
	reg.RecordOutcome("jina", registry.Outcome{OK: false, StatusCode: http.StatusBadGateway})
	require.False(t, reg.Breaker("jina").CanExecute())

	skipped := answering("jina")
	good := answering("perplexity")

	eng := newTestEngine(reg, []provider.SearchProvider{skipped, good})
	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	assert.Zero(t, skipped.callCount())
	// Skipped providers never show up in run stats.
	assert.NotContains(t, result.ResearchMetadata.ProviderStats, "jina")
}

func TestResearchWarnsOnUnansweredQueries(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())

	// The crawler rescues the run so it does not fail outright.
	crawler := &fakeCrawler{fn: func(url string) ([]model.ProviderDocument, error) {
		return []model.ProviderDocument{{
			Key:      "official_site",
			Value:    "Acme Corp official site",
			Source:   url,
			Tier:     1,
			Category: model.CategoryOfficial,
		}}, nil
	}}
	eng := newTestEngine(reg, []provider.SearchProvider{empty("jina")}, WithCrawler(crawler))

	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	assert.NotEmpty(t, result.Warnings)
	for _, w := range result.Warnings {
		assert.Contains(t, w, "no results for query")
	}
	assert.Contains(t, result.Profile, "official_site")
}

func TestResearchCrawlFailureBecomesWarning(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	crawler := &fakeCrawler{fn: func(string) ([]model.ProviderDocument, error) {
		return nil, resilience.NewProviderError(provider.NameFirecrawl, http.StatusBadGateway, eris.New("crawl failed"))
	}}

	eng := newTestEngine(reg, []provider.SearchProvider{answering("jina")}, WithCrawler(crawler))
	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "official site crawl failed") {
			found = true
		}
	}
	assert.True(t, found, "expected a crawl warning, got %v", result.Warnings)
}

func TestTruncateQueryKeepsRunesIntact(t *testing.T) {
	short := "who is Acme Corp"
	assert.Equal(t, short, truncateQuery(short))

	arabic := strings.Repeat("شركة أكمي للمقاولات ", 10)
	got := truncateQuery(arabic)
	assert.True(t, utf8.ValidString(got), "truncated warning must stay valid UTF-8")
	assert.Equal(t, 61, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestResearchValidatesInput(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	eng := newTestEngine(reg, []provider.SearchProvider{answering("jina")})

	_, err := eng.Research(context.Background(), model.ResearchInput{ClientName: "Acme"})
	assert.Error(t, err)
	_, err = eng.Research(context.Background(), model.ResearchInput{AnalysisID: "an-1"})
	assert.Error(t, err)
}

func TestResearchResultShape(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	eng := newTestEngine(reg, []provider.SearchProvider{answering("jina")},
		WithNow(func() time.Time { return now }))

	result, err := eng.Research(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, model.SchemaVersion, result.SchemaVersion)
	assert.Equal(t, "an-1", result.AnalysisID)
	assert.Equal(t, "Acme Corp", result.ClientName)
	assert.Equal(t, now, result.ResearchMetadata.GeneratedAt)
	assert.Positive(t, result.ResearchMetadata.QueriesPlanned)
	assert.ElementsMatch(t, []string{"en", "ar"}, result.ResearchMetadata.Languages)
	assert.Equal(t, len(result.Profile), len(result.Evidence))
	assert.Greater(t, result.Confidence, 0.0)
	assert.Equal(t, result.Confidence, result.ResearchMetadata.OverallConfidence)
	assert.NotNil(t, result.Warnings)
}

func TestResearchContextCancellation(t *testing.T) {
	reg := registry.New(registry.DefaultConfig())
	eng := newTestEngine(reg, []provider.SearchProvider{answering("jina")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Research(ctx, testInput())
	// Either a clean cancellation error or exhaustion; never a panic or hang.
	require.Error(t, err)
}
