package research

import (
	"sort"
	"time"

	"github.com/sells-group/rfp-intel/internal/model"
	"github.com/sells-group/rfp-intel/internal/queryplan"
	"github.com/sells-group/rfp-intel/internal/registry"
)

// assembleResult builds the immutable ClientResearchV1 record from resolved
// claims and run stats.
func assembleResult(
	input model.ResearchInput,
	plan queryplan.Plan,
	claims []model.ResolvedClaim,
	stats *RunStats,
	reg *registry.Registry,
	warnings []string,
	now time.Time,
) *model.ClientResearchV1 {
	profile := make(map[string]model.ProfileField, len(claims))
	evidence := make([]model.Evidence, 0, len(claims))
	for _, c := range claims {
		profile[c.Key] = model.ProfileField{
			Value:      c.Value,
			Confidence: c.Confidence,
			Source:     c.Source,
		}
		evidence = append(evidence, model.Evidence{
			Claim:  c.Key,
			Source: c.Source,
			Tier:   c.Tier,
		})
	}

	providerStats := stats.Snapshot(reg.HealthScore)
	sources := make([]string, 0, len(providerStats))
	for name, ps := range providerStats {
		if ps.Successes > 0 {
			sources = append(sources, name)
		}
	}
	sort.Strings(sources)

	if warnings == nil {
		warnings = []string{}
	}
	sort.Strings(warnings)

	return &model.ClientResearchV1{
		SchemaVersion:    model.SchemaVersion,
		AnalysisID:       input.AnalysisID,
		ClientName:       input.ClientName,
		ClientNameArabic: input.ClientNameArabic,
		Country:          input.Country,
		Profile:          profile,
		ResearchMetadata: model.ResearchMetadata{
			SourcesUsed:       sources,
			Languages:         plan.Languages(),
			QueriesPlanned:    len(plan.All()),
			ProviderStats:     providerStats,
			OverallConfidence: OverallConfidence(claims),
			GeneratedAt:       now,
		},
		Evidence:   evidence,
		Confidence: OverallConfidence(claims),
		Warnings:   warnings,
	}
}
