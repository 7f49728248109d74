package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/rfp-intel/internal/resilience"
)

func TestRank_TiesKeepCandidateOrder(t *testing.T) {
	r := New(DefaultConfig())

	// No history: everything neutral, candidate order preserved.
	got := r.Rank([]string{"jina", "perplexity", "google_places"})
	assert.Equal(t, []string{"jina", "perplexity", "google_places"}, got)
}

func TestRank_DescendingByScore(t *testing.T) {
	r := New(DefaultConfig())
	r.SeedHealth("jina", 0.2)
	r.SeedHealth("perplexity", 0.9)
	r.SeedHealth("google_places", 0.5)

	got := r.Rank([]string{"jina", "perplexity", "google_places"})
	assert.Equal(t, []string{"perplexity", "google_places", "jina"}, got)
}

func TestRecordOutcome_SuccessRaisesFailureLowers(t *testing.T) {
	r := New(DefaultConfig())

	before := r.HealthScore("jina")
	r.RecordOutcome("jina", Outcome{OK: true, Latency: 100 * time.Millisecond})
	afterSuccess := r.HealthScore("jina")
	assert.Greater(t, afterSuccess, before)

	r.RecordOutcome("jina", Outcome{OK: false, StatusCode: 500})
	afterFailure := r.HealthScore("jina")
	assert.Less(t, afterFailure, afterSuccess)
}

func TestRecordOutcome_RateLimitPenalizedExtra(t *testing.T) {
	cfg := DefaultConfig()
	a := New(cfg)
	b := New(cfg)

	a.RecordOutcome("p", Outcome{OK: false, StatusCode: 500})
	b.RecordOutcome("p", Outcome{OK: false, StatusCode: 429, RateLimited: true})

	assert.Less(t, b.HealthScore("p"), a.HealthScore("p"))
}

func TestRecordOutcome_ScoreBounded(t *testing.T) {
	r := New(DefaultConfig())

	for i := 0; i < 100; i++ {
		r.RecordOutcome("down", Outcome{OK: false, RateLimited: true})
		r.RecordOutcome("up", Outcome{OK: true, Latency: time.Millisecond})
	}

	assert.GreaterOrEqual(t, r.HealthScore("down"), 0.0)
	assert.LessOrEqual(t, r.HealthScore("up"), 1.0)
}

func TestRecordOutcome_SlowSuccessScoresLower(t *testing.T) {
	cfg := DefaultConfig()
	fast := New(cfg)
	slow := New(cfg)

	fast.RecordOutcome("p", Outcome{OK: true, Latency: 50 * time.Millisecond})
	slow.RecordOutcome("p", Outcome{OK: true, Latency: 10 * time.Second})

	assert.Greater(t, fast.HealthScore("p"), slow.HealthScore("p"))
}

func TestRecordOutcome_FeedsBreaker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Breaker = resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	}
	r := New(cfg)

	r.RecordOutcome("jina", Outcome{OK: false})
	r.RecordOutcome("jina", Outcome{OK: false})

	assert.False(t, r.Breaker("jina").CanExecute())
}

func TestHealthScore_UnknownProviderNeutral(t *testing.T) {
	r := New(DefaultConfig())
	assert.Equal(t, 0.5, r.HealthScore("never-seen"))
}

func TestSnapshot(t *testing.T) {
	r := New(DefaultConfig())
	r.RecordOutcome("jina", Outcome{OK: true, Latency: time.Millisecond})

	snap := r.Snapshot()
	ph, ok := snap["jina"]
	assert.True(t, ok)
	assert.Greater(t, ph.HealthScore, 0.5)
	assert.Equal(t, "closed", ph.BreakerState)
}

func TestRegistry_ConcurrentOutcomes(t *testing.T) {
	r := New(DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				r.RecordOutcome("p", Outcome{OK: n%2 == 0, Latency: time.Millisecond})
				r.Rank([]string{"p", "q"})
				r.HealthScore("p")
			}
		}(i)
	}
	wg.Wait()

	score := r.HealthScore("p")
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}
