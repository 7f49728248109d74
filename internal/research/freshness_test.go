package research

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-intel/internal/model"
)

func TestFreshnessCapUndatedGetsFloor(t *testing.T) {
	policy := DefaultFreshnessPolicy()
	now := time.Now()

	assert.InDelta(t, 0.35, policy.Cap(model.CategoryOfficial, nil, now), 1e-9)
	assert.InDelta(t, 0.15, policy.Cap(model.CategoryNews, nil, now), 1e-9)
	assert.InDelta(t, 0.25, policy.Cap(model.CategoryGeneric, nil, now), 1e-9)
}

func TestFreshnessCapDecaysWithAge(t *testing.T) {
	policy := DefaultFreshnessPolicy()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	fresh := now.AddDate(0, 0, -1)
	assert.Greater(t, policy.Cap(model.CategoryNews, &fresh, now), 0.95)

	// Exactly one half-life old: halfway between 1.0 and the floor.
	halfLife := now.AddDate(0, 0, -180)
	assert.InDelta(t, 0.575, policy.Cap(model.CategoryNews, &halfLife, now), 0.01)

	ancient := now.AddDate(-30, 0, 0)
	assert.InDelta(t, 0.15, policy.Cap(model.CategoryNews, &ancient, now), 0.01)
}

func TestFreshnessCapFutureDateClamped(t *testing.T) {
	policy := DefaultFreshnessPolicy()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	future := now.AddDate(0, 1, 0)
	assert.InDelta(t, 1.0, policy.Cap(model.CategoryOfficial, &future, now), 1e-9)
}

func TestFreshnessCapUnknownCategoryFallsBackToGeneric(t *testing.T) {
	policy := DefaultFreshnessPolicy()
	now := time.Now()

	assert.InDelta(t, 0.25, policy.Cap("blog", nil, now), 1e-9)
}

func TestTierConfidence(t *testing.T) {
	assert.Equal(t, 0.95, TierConfidence(1))
	assert.Equal(t, 0.80, TierConfidence(2))
	assert.Equal(t, 0.60, TierConfidence(3))
	assert.Equal(t, 0.40, TierConfidence(4))
	assert.Equal(t, 0.40, TierConfidence(99))
}

func TestLoadFreshnessPolicyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freshness.yaml")
	content := "categories:\n  news:\n    half_life_days: 90\n    floor: 0.10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	policy, err := LoadFreshnessPolicy(path)
	require.NoError(t, err)

	assert.InDelta(t, 90.0, policy.Categories[model.CategoryNews].HalfLifeDays, 1e-9)
	// Untouched categories keep their defaults.
	assert.InDelta(t, 1095.0, policy.Categories[model.CategoryOfficial].HalfLifeDays, 1e-9)
}

func TestLoadFreshnessPolicyRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freshness.yaml")
	content := "categories:\n  news:\n    half_life_days: 0\n    floor: 0.10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadFreshnessPolicy(path)
	assert.Error(t, err)
}

func TestLoadFreshnessPolicyMissingFile(t *testing.T) {
	policy, err := LoadFreshnessPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	// Defaults still returned so callers can degrade gracefully.
	assert.InDelta(t, 0.35, policy.Categories[model.CategoryOfficial].Floor, 1e-9)
}
