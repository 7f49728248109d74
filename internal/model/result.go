package model

import "time"

// SchemaVersion is the version stamped into every ClientResearchV1 record.
const SchemaVersion = "1.0.0"

// Provider final statuses for a single run.
const (
	ProviderStatusOK       = "ok"
	ProviderStatusDegraded = "degraded"
	ProviderStatusFailed   = "failed"
)

// ProviderStats is the per-provider, per-run outcome summary embedded in
// research metadata.
type ProviderStats struct {
	Attempts     int     `json:"attempts"`
	Successes    int     `json:"successes"`
	Failures     int     `json:"failures"`
	Retries      int     `json:"retries"`
	RateLimited  int     `json:"rate_limited_count"`
	FinalStatus  string  `json:"final_status"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	HealthScore  float64 `json:"health_score"`
	LastError    string  `json:"last_error,omitempty"`
}

// ProfileField is one researched company attribute with its confidence.
type ProfileField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// ResearchMetadata aggregates run-level observability for a research record.
type ResearchMetadata struct {
	SourcesUsed       []string                 `json:"sources_used"`
	Languages         []string                 `json:"languages"`
	QueriesPlanned    int                      `json:"queries_planned"`
	ProviderStats     map[string]ProviderStats `json:"provider_stats"`
	OverallConfidence float64                  `json:"overall_confidence"`
	GeneratedAt       time.Time                `json:"generated_at"`
}

// ClientResearchV1 is the engine's final output. Created once per analysis
// and never mutated after construction.
type ClientResearchV1 struct {
	SchemaVersion    string                  `json:"schema_version"`
	AnalysisID       string                  `json:"analysis_id"`
	ClientName       string                  `json:"client_name"`
	ClientNameArabic string                  `json:"client_name_arabic,omitempty"`
	Country          string                  `json:"country,omitempty"`
	Profile          map[string]ProfileField `json:"profile"`
	ResearchMetadata ResearchMetadata        `json:"research_metadata"`
	Evidence         []Evidence              `json:"evidence"`
	Confidence       float64                 `json:"confidence"`
	Warnings         []string                `json:"warnings"`
}
