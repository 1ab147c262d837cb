package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Stage names one pipeline step. Each stage persists one artifact per run.
type Stage string

const (
	StageCountUnits        Stage = "count_units"
	StageFlowersPerUnit    Stage = "flowers_per_unit"
	StageFlowerCandidates  Stage = "flowers_per_unit_candidates"
	StageBractKey          Stage = "bract_flower_key"
	StageCaloriesPerFlower Stage = "calories_per_flower"
	StagePlantCalories     Stage = "plant_calories"
)

// Run is one execution of the pipeline over a set of inputs.
type Run struct {
	ID        string            `json:"id"`
	Status    RunStatus         `json:"status"`
	Inputs    map[string]string `json:"inputs,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Artifact is the stored output of one stage.
type Artifact struct {
	RunID     string    `json:"run_id"`
	Stage     Stage     `json:"stage"`
	RowCount  int       `json:"row_count"`
	Payload   []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
