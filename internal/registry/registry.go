// Package registry tracks per-provider health and circuit breakers for the
// research engine. One Registry instance is constructed per process (or per
// test) and injected wherever provider calls are made; health scores persist
// across research runs for the registry's lifetime.
package registry

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/rfp-intel/internal/resilience"
)

// neutralScore is the health assigned to a provider with no recorded history.
const neutralScore = 0.5

// Config controls health scoring and the per-provider breakers.
type Config struct {
	// EWMAAlpha is the weight of the newest sample in the health score.
	// Default: 0.3.
	EWMAAlpha float64

	// SlowLatency marks a successful call as sluggish: it still counts as a
	// success but with a reduced sample value. Default: 5s.
	SlowLatency time.Duration

	// RateLimitPenalty is subtracted from the score on top of the failure
	// sample when a call was rate-limited. Default: 0.1.
	RateLimitPenalty float64

	// Breaker configures every per-provider circuit breaker.
	Breaker resilience.CircuitBreakerConfig
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EWMAAlpha:        0.3,
		SlowLatency:      5 * time.Second,
		RateLimitPenalty: 0.1,
		Breaker:          resilience.DefaultCircuitBreakerConfig(),
	}
}

// Outcome is one observed provider call, fed into health scoring and the
// provider's breaker.
type Outcome struct {
	OK          bool
	Latency     time.Duration
	StatusCode  int
	RateLimited bool
}

// ProviderHealth is a read-only snapshot of one provider's state.
type ProviderHealth struct {
	HealthScore  float64 `json:"health_score"`
	BreakerState string  `json:"breaker_state"`
}

// Registry holds one breaker and one health score per provider behind a
// single lock. Ranking never excludes a provider — exclusion is the
// breaker's job.
type Registry struct {
	cfg Config

	mu       sync.Mutex
	health   map[string]float64
	breakers map[string]*resilience.CircuitBreaker
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	if cfg.EWMAAlpha <= 0 || cfg.EWMAAlpha > 1 {
		cfg.EWMAAlpha = 0.3
	}
	if cfg.SlowLatency <= 0 {
		cfg.SlowLatency = 5 * time.Second
	}
	if cfg.RateLimitPenalty < 0 {
		cfg.RateLimitPenalty = 0.1
	}
	return &Registry{
		cfg:      cfg,
		health:   make(map[string]float64),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

// Breaker returns the circuit breaker for the named provider, creating one
// if needed.
func (r *Registry) Breaker(provider string) *resilience.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.breakerLocked(provider)
}

func (r *Registry) breakerLocked(provider string) *resilience.CircuitBreaker {
	cb, ok := r.breakers[provider]
	if !ok {
		cb = resilience.NewCircuitBreaker(r.cfg.Breaker)
		r.breakers[provider] = cb
	}
	return cb
}

// Rank returns candidates sorted by descending health score. Ties keep the
// candidate order, so ranking is deterministic.
func (r *Registry) Rank(candidates []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ranked := make([]string, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.scoreLocked(ranked[i]) > r.scoreLocked(ranked[j])
	})
	return ranked
}

// RecordOutcome folds one observed call into the provider's health score and
// breaker. Success raises the score, failure lowers it, rate limiting lowers
// it further; the score stays within [0, 1].
func (r *Registry) RecordOutcome(provider string, o Outcome) {
	r.mu.Lock()

	sample := 0.0
	if o.OK {
		sample = 1.0
		if o.Latency >= r.cfg.SlowLatency {
			sample = 0.8
		}
	}

	score := r.scoreLocked(provider)
	score = (1-r.cfg.EWMAAlpha)*score + r.cfg.EWMAAlpha*sample
	if o.RateLimited {
		score -= r.cfg.RateLimitPenalty
	}
	score = clamp01(score)
	r.health[provider] = score

	cb := r.breakerLocked(provider)
	r.mu.Unlock()

	// Breaker has its own lock; update outside ours to keep lock ordering flat.
	if o.OK {
		cb.OnSuccess()
	} else {
		cb.OnFailure()
	}

	zap.L().Debug("registry: outcome recorded",
		zap.String("provider", provider),
		zap.Bool("ok", o.OK),
		zap.Bool("rate_limited", o.RateLimited),
		zap.Duration("latency", o.Latency),
		zap.Float64("health_score", score),
	)
}

// HealthScore returns the provider's current score. Unknown providers score
// neutral.
func (r *Registry) HealthScore(provider string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scoreLocked(provider)
}

// SeedHealth sets a provider's score directly, e.g. from a persisted
// snapshot at startup. Clamped to [0, 1].
func (r *Registry) SeedHealth(provider string, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health[provider] = clamp01(score)
}

// Snapshot returns the current health and breaker state of every provider
// the registry has seen.
func (r *Registry) Snapshot() map[string]ProviderHealth {
	r.mu.Lock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	for name := range r.health {
		if _, ok := r.breakers[name]; !ok {
			names = append(names, name)
		}
	}
	snap := make(map[string]ProviderHealth, len(names))
	scores := make(map[string]float64, len(names))
	breakers := make(map[string]*resilience.CircuitBreaker, len(names))
	for _, name := range names {
		scores[name] = r.scoreLocked(name)
		if cb, ok := r.breakers[name]; ok {
			breakers[name] = cb
		}
	}
	r.mu.Unlock()

	for _, name := range names {
		state := resilience.CircuitClosed.String()
		if cb, ok := breakers[name]; ok {
			state = cb.State().String()
		}
		snap[name] = ProviderHealth{
			HealthScore:  scores[name],
			BreakerState: state,
		}
	}
	return snap
}

func (r *Registry) scoreLocked(provider string) float64 {
	if s, ok := r.health[provider]; ok {
		return s
	}
	return neutralScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
