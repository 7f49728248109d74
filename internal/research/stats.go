package research

import (
	"sort"
	"sync"
	"time"

	"github.com/sells-group/rfp-intel/internal/model"
)

// RunStats accumulates per-provider counters for one research run. Safe for
// concurrent use from fan-out tasks; read once at the end of the run.
type RunStats struct {
	mu        sync.Mutex
	providers map[string]*providerCounters
}

type providerCounters struct {
	attempts    int
	successes   int
	failures    int
	retries     int
	rateLimited int
	latenciesMs []float64
	lastError   string
}

// NewRunStats creates an empty accumulator.
func NewRunStats() *RunStats {
	return &RunStats{providers: make(map[string]*providerCounters)}
}

// Attempt counts one call about to be made. Breaker-skipped providers are
// never counted.
func (s *RunStats) Attempt(provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters(provider).attempts++
}

// Success records a completed call and its observed latency.
func (s *RunStats) Success(provider string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters(provider)
	c.successes++
	c.latenciesMs = append(c.latenciesMs, float64(latency.Milliseconds()))
}

// Failure records a failed call with its classified signals.
func (s *RunStats) Failure(provider string, errMsg string, retries int, rateLimited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters(provider)
	c.failures++
	c.retries += retries
	if rateLimited {
		c.rateLimited++
	}
	c.lastError = errMsg
}

func (s *RunStats) counters(provider string) *providerCounters {
	c, ok := s.providers[provider]
	if !ok {
		c = &providerCounters{}
		s.providers[provider] = c
	}
	return c
}

// Snapshot derives the final per-provider stats. healthScore supplies the
// registry's current score per provider.
func (s *RunStats) Snapshot(healthScore func(provider string) float64) map[string]model.ProviderStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.ProviderStats, len(s.providers))
	for name, c := range s.providers {
		out[name] = model.ProviderStats{
			Attempts:     c.attempts,
			Successes:    c.successes,
			Failures:     c.failures,
			Retries:      c.retries,
			RateLimited:  c.rateLimited,
			FinalStatus:  finalStatus(c.successes, c.failures),
			AvgLatencyMs: mean(c.latenciesMs),
			P95LatencyMs: percentile95(c.latenciesMs),
			HealthScore:  healthScore(name),
			LastError:    c.lastError,
		}
	}
	return out
}

func finalStatus(successes, failures int) string {
	switch {
	case successes > 0 && failures == 0:
		return model.ProviderStatusOK
	case successes > 0:
		return model.ProviderStatusDegraded
	default:
		return model.ProviderStatusFailed
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func percentile95(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted))*0.95+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
