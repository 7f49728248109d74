package model

// Extraction quality flags set by the upstream document-parsing stage.
const (
	FlagIncompleteExtraction = "incomplete_extraction"
	FlagConflictsDetected    = "conflicts_detected"
	FlagLowEvidenceDensity   = "low_evidence_density"
	FlagCriticalInfoMissing  = "critical_info_missing"
)

// ExtractedRFP is the slice of the parsing stage's output consumed by the
// quality gate. The full extraction record lives upstream; only the fields
// the gate reads are modeled here.
type ExtractedRFP struct {
	QualityFlags         []string            `json:"quality_flags"`
	MissingInformation   []string            `json:"missing_information"`
	RequiredDeliverables []string            `json:"required_deliverables"`
	ImportantDates       []string            `json:"important_dates"`
	FieldEvidence        map[string][]string `json:"field_evidence"` // field name -> citations
}

// HasFlag reports whether a quality flag is present.
func (e ExtractedRFP) HasFlag(flag string) bool {
	for _, f := range e.QualityFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Scope item classifications produced by the scope-matching stage.
const (
	ScopeMatchInScope    = "in_scope"
	ScopeMatchOutOfScope = "out_of_scope"
	ScopeMatchUncertain  = "uncertain"
)

// ScopeItem is a single scope-of-work line with its match classification.
// An empty Classification means the matcher could not classify it at all.
type ScopeItem struct {
	Description    string `json:"description"`
	Classification string `json:"classification"`
}

// ScopeAnalysis is the scope-matching stage's output consumed by the gate.
type ScopeAnalysis struct {
	Items []ScopeItem `json:"items"`
}
