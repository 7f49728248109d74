// Package gate makes the final pass/review/blocked call over a complete
// analysis. Evaluate is pure: no I/O, no clock, identical inputs yield
// identical output so a verdict can be reproduced during dispute review.
package gate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/sells-group/rfp-intel/internal/model"
)

// Gate statuses.
const (
	StatusPass    = "pass"
	StatusReview  = "review_required"
	StatusBlocked = "blocked"
)

// criticalFields are the extraction fields whose evidence coverage feeds the
// density measure.
var criticalFields = []string{
	"client_name",
	"project_name",
	"scope_of_work",
	"evaluation_criteria",
	"required_deliverables",
	"important_dates",
	"submission_deadline",
}

var criticalFieldPattern = regexp.MustCompile(`(?i)(client|project|scope|evaluation|deliverable|deadline|submission)`)

// Section score thresholds.
const (
	extractionBaseline = 0.85

	penaltyIncomplete  = 0.25
	penaltyConflicts   = 0.15
	penaltyLowEvidence = 0.10

	minEvidenceDensity = 0.40
	minScopeScore      = 0.55
	minResearchScore   = 0.50

	reviewExtraction = 0.75
	reviewScope      = 0.70
	reviewResearch   = 0.65
)

// Input bundles the three analysis sections the gate judges.
type Input struct {
	Extraction model.ExtractedRFP      `json:"extraction"`
	Scope      model.ScopeAnalysis     `json:"scope"`
	Research   *model.ClientResearchV1 `json:"research,omitempty"`
}

// SectionScores are the three per-section scores, each in [0,1].
type SectionScores struct {
	Extraction float64 `json:"extraction"`
	Scope      float64 `json:"scope"`
	Research   float64 `json:"research"`
}

// Assessment is the gate's verdict.
type Assessment struct {
	Status          string        `json:"status"`
	Blocked         bool          `json:"blocked"`
	BlockReasons    []string      `json:"block_reasons"`
	EvidenceDensity float64       `json:"evidence_density"`
	SectionScores   SectionScores `json:"section_scores"`
}

// Evaluate classifies the analysis. Any single block condition forces
// blocked; otherwise a section score under its review bound yields
// review_required; otherwise pass.
func Evaluate(in Input) Assessment {
	density := evidenceDensity(in.Extraction)
	scores := SectionScores{
		Extraction: extractionScore(in.Extraction, density),
		Scope:      scopeScore(in.Scope),
		Research:   researchScore(in.Research),
	}

	reasons := blockReasons(in, density, scores)
	assessment := Assessment{
		Blocked:         len(reasons) > 0,
		BlockReasons:    reasons,
		EvidenceDensity: density,
		SectionScores:   scores,
	}

	switch {
	case assessment.Blocked:
		assessment.Status = StatusBlocked
	case scores.Extraction < reviewExtraction || scores.Scope < reviewScope || scores.Research < reviewResearch:
		assessment.Status = StatusReview
	default:
		assessment.Status = StatusPass
	}
	return assessment
}

func blockReasons(in Input, density float64, scores SectionScores) []string {
	var reasons []string

	if in.Extraction.HasFlag(model.FlagCriticalInfoMissing) {
		reasons = append(reasons, "extraction flagged critical information as missing")
	}
	missing := criticalMissing(in.Extraction.MissingInformation)
	for _, field := range missing {
		reasons = append(reasons, fmt.Sprintf("critical field reported missing: %s", field))
	}
	if density < minEvidenceDensity {
		reasons = append(reasons, fmt.Sprintf("evidence density %.2f below %.2f", density, minEvidenceDensity))
	}
	if len(in.Extraction.RequiredDeliverables) == 0 {
		reasons = append(reasons, "no required deliverables extracted")
	}
	if len(in.Extraction.ImportantDates) == 0 {
		reasons = append(reasons, "no important dates extracted")
	}
	if scores.Scope < minScopeScore {
		reasons = append(reasons, fmt.Sprintf("scope score %.2f below %.2f", scores.Scope, minScopeScore))
	}
	if scores.Research < minResearchScore {
		reasons = append(reasons, fmt.Sprintf("research score %.2f below %.2f", scores.Research, minResearchScore))
	}
	return reasons
}

// criticalMissing returns the missing-information entries that name a
// critical field, deduplicated and sorted for stable output.
func criticalMissing(entries []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range entries {
		if !criticalFieldPattern.MatchString(entry) {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}

// evidenceDensity is the fraction of critical fields with at least one
// citation.
func evidenceDensity(e model.ExtractedRFP) float64 {
	covered := 0
	for _, field := range criticalFields {
		if len(e.FieldEvidence[field]) > 0 {
			covered++
		}
	}
	return float64(covered) / float64(len(criticalFields))
}

// extractionScore starts from the baseline, subtracts flag penalties, and
// blends in evidence density so well-cited extractions recover some score.
func extractionScore(e model.ExtractedRFP, density float64) float64 {
	score := extractionBaseline
	if e.HasFlag(model.FlagIncompleteExtraction) {
		score -= penaltyIncomplete
	}
	if e.HasFlag(model.FlagConflictsDetected) {
		score -= penaltyConflicts
	}
	if e.HasFlag(model.FlagLowEvidenceDensity) {
		score -= penaltyLowEvidence
	}
	return clamp01(0.7*score + 0.3*density)
}

// scopeScore is 1 minus the uncertain fraction, with a flat penalty when any
// item came back wholly unclassified. No items at all scores zero.
func scopeScore(s model.ScopeAnalysis) float64 {
	if len(s.Items) == 0 {
		return 0
	}
	uncertain := 0
	unclassified := false
	for _, item := range s.Items {
		switch item.Classification {
		case model.ScopeMatchUncertain:
			uncertain++
		case model.ScopeMatchInScope, model.ScopeMatchOutOfScope:
		default:
			unclassified = true
		}
	}
	score := 1 - float64(uncertain)/float64(len(s.Items))
	if unclassified {
		score -= 0.2
	}
	return clamp01(score)
}

// researchScore blends overall confidence with source coverage and penalizes
// runs where three or more providers ended failed. A missing research record
// scores zero.
func researchScore(r *model.ClientResearchV1) float64 {
	if r == nil {
		return 0
	}
	coverage := float64(len(r.ResearchMetadata.SourcesUsed)) / 5
	if coverage > 1 {
		coverage = 1
	}

	score := 0.7*r.ResearchMetadata.OverallConfidence + 0.3*coverage

	failed := 0
	for _, stats := range r.ResearchMetadata.ProviderStats {
		if stats.FinalStatus == model.ProviderStatusFailed {
			failed++
		}
	}
	if failed >= 3 {
		score -= 0.15
	}
	return clamp01(score)
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
