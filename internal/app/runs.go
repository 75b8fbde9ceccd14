package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

// RunState is the lifecycle state of one report run.
type RunState string

const (
	RunPending   RunState = "pending"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// Run tracks one report generation from request to artifact.
type Run struct {
	ID        string                   `json:"id"`
	Ticker    string                   `json:"ticker"`
	State     RunState                 `json:"state"`
	Stage     interfaces.PipelineStage `json:"stage"`
	Message   string                   `json:"message,omitempty"`
	Error     string                   `json:"error,omitempty"`
	StartedAt time.Time                `json:"started_at"`
	UpdatedAt time.Time                `json:"updated_at"`

	Document *models.RenderedDocument `json:"document,omitempty"`
}

// RunRegistry is the in-memory registry of report runs for the HTTP
// surface. Runs live for the process lifetime.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]*Run)}
}

// Create registers a new pending run for a ticker.
func (r *RunRegistry) Create(ticker string) *Run {
	now := time.Now()
	run := &Run{
		ID:        uuid.NewString(),
		Ticker:    ticker,
		State:     RunPending,
		Stage:     interfaces.StageStart,
		StartedAt: now,
		UpdatedAt: now,
	}
	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()
	return run
}

// Get returns a copy of the run, or false when unknown.
func (r *RunRegistry) Get(id string) (Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Progress returns a ProgressFunc bound to the run.
func (r *RunRegistry) Progress(id string) interfaces.ProgressFunc {
	return func(stage interfaces.PipelineStage, message string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		run, ok := r.runs[id]
		if !ok {
			return
		}
		run.Stage = stage
		run.Message = message
		run.UpdatedAt = time.Now()
		if run.State == RunPending {
			run.State = RunRunning
		}
	}
}

// Complete marks the run finished with its rendered document.
func (r *RunRegistry) Complete(id string, doc *models.RenderedDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.State = RunCompleted
		run.Stage = interfaces.StageDone
		run.Document = doc
		run.UpdatedAt = time.Now()
	}
}

// Fail marks the run failed.
func (r *RunRegistry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[id]; ok {
		run.State = RunFailed
		run.Stage = interfaces.StageFailed
		run.Error = err.Error()
		run.UpdatedAt = time.Now()
	}
}
