// Package store records build runs and their phases.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of a run or phase.
type RunStatus string

// Run and phase states.
const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the build pipeline.
type Run struct {
	ID        string          `json:"id"`
	Cycle     string          `json:"cycle"`
	Input     string          `json:"input"`
	Status    RunStatus       `json:"status"`
	Summary   json.RawMessage `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Phase is a timed step of a run.
type Phase struct {
	ID         string          `json:"id"`
	RunID      string          `json:"run_id"`
	Name       string          `json:"name"`
	Status     RunStatus       `json:"status"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status RunStatus `json:"status,omitempty"`
	Cycle  string    `json:"cycle,omitempty"`
	Limit  int       `json:"limit,omitempty"`
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, cycle, input string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, summary any) error
	FailRun(ctx context.Context, runID string, msg string) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	CreatePhase(ctx context.Context, runID, name string) (*Phase, error)
	CompletePhase(ctx context.Context, phaseID string, status RunStatus, detail any) error
	ListPhases(ctx context.Context, runID string) ([]Phase, error)

	Migrate(ctx context.Context) error
	Close() error
}
