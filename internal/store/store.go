// Package store persists pipeline runs, their stage artifacts and the final
// per-plant rows.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/nectar-cli/internal/model"
)

// ErrNotFound is returned, wrapped, when a run does not exist.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// PlantFilter narrows the stored per-plant rows of a run.
type PlantFilter struct {
	MissingOnly bool   `json:"missing_only,omitempty"`
	Species     string `json:"species,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputs map[string]string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Artifacts are write-once per run and stage.
	SaveArtifact(ctx context.Context, runID string, stage model.Stage, rowCount int, payload []byte) error
	GetArtifact(ctx context.Context, runID string, stage model.Stage) (*model.Artifact, error)
	ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error)

	// Plant rows
	SavePlantCalories(ctx context.Context, runID string, plants []model.PlantCalories) error
	ListPlantCalories(ctx context.Context, runID string, filter PlantFilter) ([]model.PlantCalories, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
