// Package store archives research runs and provider-health snapshots.
package store

import (
	"context"
	"time"

	"github.com/sells-group/rfp-intel/internal/model"
)

// Run statuses.
const (
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// RunRecord is one archived research run.
type RunRecord struct {
	ID        string                  `json:"id"`
	Client    string                  `json:"client"`
	Status    string                  `json:"status"`
	Result    *model.ClientResearchV1 `json:"result,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Client string `json:"client,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// HealthSnapshot is one persisted provider health score.
type HealthSnapshot struct {
	Provider    string    `json:"provider"`
	HealthScore float64   `json:"health_score"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store defines the persistence interface for the research engine.
type Store interface {
	// Runs
	SaveRun(ctx context.Context, client, status string, result *model.ClientResearchV1) (*RunRecord, error)
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]RunRecord, error)

	// Provider health
	UpsertHealth(ctx context.Context, provider string, score float64) error
	LoadHealth(ctx context.Context) ([]HealthSnapshot, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
