package research

import (
	"sort"
	"time"

	"github.com/sells-group/rfp-intel/internal/model"
)

// ResolveClaims picks one winning document per claim key. Lower tier wins;
// within a tier the most recent source date wins, with dated documents
// beating undated ones. The returned claims are sorted by key so output is
// deterministic.
func ResolveClaims(docs []model.ProviderDocument, policy FreshnessPolicy, now time.Time) []model.ResolvedClaim {
	winners := resolveWinners(docs)

	keys := make([]string, 0, len(winners))
	for key := range winners {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	claims := make([]model.ResolvedClaim, 0, len(keys))
	for _, key := range keys {
		doc := winners[key]
		ceiling := policy.Cap(doc.Category, doc.SourceDate, now)
		confidence := TierConfidence(doc.Tier)
		if ceiling < confidence {
			confidence = ceiling
		}
		claims = append(claims, model.ResolvedClaim{
			Key:        doc.Key,
			Value:      doc.Value,
			Source:     doc.Source,
			Tier:       doc.Tier,
			SourceDate: doc.SourceDate,
			Confidence: confidence,
		})
	}
	return claims
}

// OverallConfidence is the mean claim confidence, or 0.5 when nothing was
// resolved.
func OverallConfidence(claims []model.ResolvedClaim) float64 {
	if len(claims) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, c := range claims {
		sum += c.Confidence
	}
	return sum / float64(len(claims))
}

func resolveWinners(docs []model.ProviderDocument) map[string]model.ProviderDocument {
	winners := make(map[string]model.ProviderDocument)
	for _, doc := range docs {
		if doc.Key == "" || doc.Value == "" {
			continue
		}
		current, ok := winners[doc.Key]
		if !ok || beats(doc, current) {
			winners[doc.Key] = doc
		}
	}
	return winners
}

// beats reports whether challenger should replace incumbent for the same key.
// Every comparison ends in a strict order so resolution does not depend on
// the order concurrent tasks appended documents.
func beats(challenger, incumbent model.ProviderDocument) bool {
	if challenger.Tier != incumbent.Tier {
		return challenger.Tier < incumbent.Tier
	}
	switch {
	case challenger.SourceDate == nil && incumbent.SourceDate == nil:
	case challenger.SourceDate == nil:
		return false
	case incumbent.SourceDate == nil:
		return true
	case !challenger.SourceDate.Equal(*incumbent.SourceDate):
		return challenger.SourceDate.After(*incumbent.SourceDate)
	}
	// Full tie on tier and date: lexicographically smaller source wins.
	return challenger.Source < incumbent.Source
}
