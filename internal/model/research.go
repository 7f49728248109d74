// Package model defines the shared domain types for the research engine.
package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// RFPContext carries document-derived fields used to sharpen search queries.
// All fields are optional; an empty context disables LLM query planning.
type RFPContext struct {
	ProjectName        string `json:"project_name,omitempty"`
	ProjectDescription string `json:"project_description,omitempty"`
	ScopeOfWork        string `json:"scope_of_work,omitempty"`
	Industry           string `json:"industry,omitempty"`
}

// IsEmpty reports whether the context carries no usable signal.
func (c *RFPContext) IsEmpty() bool {
	if c == nil {
		return true
	}
	return c.ProjectName == "" && c.ProjectDescription == "" &&
		c.ScopeOfWork == "" && c.Industry == ""
}

// ResearchInput identifies the client organization to research.
type ResearchInput struct {
	AnalysisID       string      `json:"analysis_id"`
	ClientName       string      `json:"client_name"`
	ClientNameArabic string      `json:"client_name_arabic,omitempty"`
	Country          string      `json:"country,omitempty"`
	RFPContext       *RFPContext `json:"rfp_context,omitempty"`
}

// Validate checks required fields. Validation failures are non-retryable.
func (in ResearchInput) Validate() error {
	if strings.TrimSpace(in.AnalysisID) == "" {
		return eris.New("research input: analysis_id is required")
	}
	if strings.TrimSpace(in.ClientName) == "" {
		return eris.New("research input: client_name is required")
	}
	return nil
}

// Source categories attached to provider documents.
const (
	CategoryOfficial = "official"
	CategoryNews     = "news"
	CategoryGeneric  = "generic"
)

// ProviderDocument is a single claim surfaced by one provider. Immutable
// once produced by an adapter.
type ProviderDocument struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Source     string     `json:"source"`
	Tier       int        `json:"tier"` // 1 = most authoritative .. 4 = least
	SourceDate *time.Time `json:"source_date,omitempty"`
	Category   string     `json:"category"`
}

// ResolvedClaim is the winning value for one claim key after trust
// resolution, with its freshness-capped confidence.
type ResolvedClaim struct {
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Source     string     `json:"source"`
	Tier       int        `json:"tier"`
	SourceDate *time.Time `json:"source_date,omitempty"`
	Confidence float64    `json:"confidence"`
}

// Evidence is one flattened citation in the final research record.
type Evidence struct {
	Claim  string `json:"claim"`
	Source string `json:"source"`
	Tier   int    `json:"tier"`
}
