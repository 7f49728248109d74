package research

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-intel/internal/model"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolveClaimsLowerTierWins(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.ProviderDocument{
		{Key: "company_overview", Value: "from news", Source: "https://news.example.com", Tier: 2, SourceDate: datePtr(2026, 5, 1), Category: model.CategoryNews},
		{Key: "company_overview", Value: "from official", Source: "https://acme.gov.sa", Tier: 1, SourceDate: datePtr(2024, 1, 1), Category: model.CategoryOfficial},
	}

	claims := ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.Equal(t, "from official", claims[0].Value)
	assert.Equal(t, 1, claims[0].Tier)
}

func TestResolveClaimsTieBrokenByRecency(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	docs := []model.ProviderDocument{
		{Key: "recent_news", Value: "older", Source: "a", Tier: 2, SourceDate: datePtr(2026, 1, 1), Category: model.CategoryNews},
		{Key: "recent_news", Value: "newer", Source: "b", Tier: 2, SourceDate: datePtr(2026, 5, 1), Category: model.CategoryNews},
	}

	claims := ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.Equal(t, "newer", claims[0].Value)
}

func TestResolveClaimsDatedBeatsUndatedWithinTier(t *testing.T) {
	now := time.Now()
	docs := []model.ProviderDocument{
		{Key: "financials", Value: "undated", Source: "a", Tier: 2, Category: model.CategoryNews},
		{Key: "financials", Value: "dated", Source: "b", Tier: 2, SourceDate: datePtr(2020, 1, 1), Category: model.CategoryNews},
	}

	claims := ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.Equal(t, "dated", claims[0].Value)

	// Order independence: incumbent dated, challenger undated.
	claims = ResolveClaims([]model.ProviderDocument{docs[1], docs[0]}, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.Equal(t, "dated", claims[0].Value)
}

func TestResolveClaimsConfidenceIsCappedByFreshness(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Tier 1 baseline is 0.95, but an undated official doc is capped at 0.35.
	docs := []model.ProviderDocument{
		{Key: "company_overview", Value: "v", Source: "https://acme.gov.sa", Tier: 1, Category: model.CategoryOfficial},
	}
	claims := ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.InDelta(t, 0.35, claims[0].Confidence, 1e-9)

	// A fresh tier-3 doc keeps its tier confidence; the cap is above it.
	fresh := now.AddDate(0, 0, -1)
	docs = []model.ProviderDocument{
		{Key: "company_size", Value: "v", Source: "https://example.com", Tier: 3, SourceDate: &fresh, Category: model.CategoryGeneric},
	}
	claims = ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 1)
	assert.InDelta(t, 0.60, claims[0].Confidence, 1e-9)
}

func TestResolveClaimsSkipsBlankDocuments(t *testing.T) {
	docs := []model.ProviderDocument{
		{Key: "", Value: "v", Tier: 2},
		{Key: "k", Value: "", Tier: 2},
	}
	assert.Empty(t, ResolveClaims(docs, DefaultFreshnessPolicy(), time.Now()))
}

func TestResolveClaimsDeterministicOrder(t *testing.T) {
	now := time.Now()
	docs := []model.ProviderDocument{
		{Key: "leadership", Value: "v", Source: "a", Tier: 2, Category: model.CategoryNews},
		{Key: "company_overview", Value: "v", Source: "b", Tier: 2, Category: model.CategoryNews},
		{Key: "financials", Value: "v", Source: "c", Tier: 2, Category: model.CategoryNews},
	}

	claims := ResolveClaims(docs, DefaultFreshnessPolicy(), now)
	require.Len(t, claims, 3)
	assert.Equal(t, "company_overview", claims[0].Key)
	assert.Equal(t, "financials", claims[1].Key)
	assert.Equal(t, "leadership", claims[2].Key)
}

func TestResolveClaimsMergeOrderInsensitive(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Tier and date tie completely: undated pair and same-dated pair.
	undatedA := model.ProviderDocument{Key: "company_size", Value: "Large", Source: "https://a.example.com", Tier: 2, Category: model.CategoryNews}
	undatedB := model.ProviderDocument{Key: "company_size", Value: "Small", Source: "https://b.example.com", Tier: 2, Category: model.CategoryNews}
	datedA := model.ProviderDocument{Key: "financials", Value: "SAR 2B", Source: "https://a.example.com", Tier: 2, SourceDate: datePtr(2026, 3, 1), Category: model.CategoryNews}
	datedB := model.ProviderDocument{Key: "financials", Value: "SAR 3B", Source: "https://b.example.com", Tier: 2, SourceDate: datePtr(2026, 3, 1), Category: model.CategoryNews}

	forward := ResolveClaims([]model.ProviderDocument{undatedA, undatedB, datedA, datedB}, DefaultFreshnessPolicy(), now)
	reversed := ResolveClaims([]model.ProviderDocument{datedB, datedA, undatedB, undatedA}, DefaultFreshnessPolicy(), now)

	assert.Equal(t, forward, reversed)

	// The smaller source wins the full tie in both orders.
	require.Len(t, forward, 2)
	assert.Equal(t, "Large", forward[0].Value)
	assert.Equal(t, "https://a.example.com", forward[0].Source)
	assert.Equal(t, "SAR 2B", forward[1].Value)
	assert.Equal(t, "https://a.example.com", forward[1].Source)
}

func TestOverallConfidence(t *testing.T) {
	assert.Equal(t, 0.5, OverallConfidence(nil))

	claims := []model.ResolvedClaim{
		{Confidence: 0.9},
		{Confidence: 0.5},
	}
	assert.InDelta(t, 0.7, OverallConfidence(claims), 1e-9)
}
