// Package store persists completed runs and their listings.
package store

import (
	"context"

	"github.com/propscout/propscout/internal/model"
)

// RunFilter specifies criteria for listing stored runs.
type RunFilter struct {
	City   string
	Limit  int
	Offset int
}

// Store defines the persistence boundary the orchestrator hands results to.
type Store interface {
	SaveRun(ctx context.Context, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.RunResult, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)
	Migrate(ctx context.Context) error
	Close() error
}
