package operations

import (
	"sync"
	"time"

	"olistcli/internal/analysis"
	"olistcli/internal/dataset"
	"olistcli/internal/features"
	"olistcli/internal/forecast"
	"olistcli/internal/validation"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState is the state of one pipeline run. Steps hand their results to
// later steps through the typed artifact accessors.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Request   Request
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	Steps map[string]*StepState

	raw         *dataset.TableSet
	cleaned     *dataset.TableSet
	validation  *validation.Result
	features    *features.Result
	forecast    *forecast.Result
	outcomes    []analysis.Outcome
	outputs     map[string][]string
	generatedAt time.Time
}

// NewRunState creates the state for a run
func NewRunState(id string, req Request) *RunState {
	return &RunState{
		ID:        id,
		Request:   req,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		outputs:   make(map[string][]string),
	}
}

// Start marks the run as running
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *RunState) Complete() {
	s.finish(RunStatusCompleted, nil)
}

// Fail marks the run as failed
func (s *RunState) Fail(err error) {
	s.finish(RunStatusFailed, err)
}

// Cancel marks the run as cancelled
func (s *RunState) Cancel(err error) {
	s.finish(RunStatusCancelled, err)
}

func (s *RunState) finish(status RunStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
}

// CurrentStatus returns the run status under the state lock
func (s *RunState) CurrentStatus() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the run
func (s *RunState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// GetStep returns the state of a specific step
func (s *RunState) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Steps[id]
}

// SetStep registers the state of a step
func (s *RunState) SetStep(id string, st *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Steps[id] = st
}

// SetRawTables stores the loaded source tables
func (s *RunState) SetRawTables(ts dataset.TableSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = &ts
}

// RawTables returns the loaded source tables
func (s *RunState) RawTables() (dataset.TableSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.raw == nil {
		return dataset.TableSet{}, false
	}
	return *s.raw, true
}

// SetCleanedTables stores the cleaned tables
func (s *RunState) SetCleanedTables(ts dataset.TableSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleaned = &ts
}

// CleanedTables returns the cleaned tables
func (s *RunState) CleanedTables() (dataset.TableSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cleaned == nil {
		return dataset.TableSet{}, false
	}
	return *s.cleaned, true
}

// SetValidation stores the validation result
func (s *RunState) SetValidation(r validation.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validation = &r
}

// Validation returns the validation result, nil before the validate step
func (s *RunState) Validation() *validation.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validation
}

// SetFeatures stores the master datasets and the forecaster output
func (s *RunState) SetFeatures(r *features.Result, f *forecast.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = r
	s.forecast = f
}

// Features returns the master datasets, nil before the features step
func (s *RunState) Features() *features.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.features
}

// Forecast returns the forecaster output, nil when it was not run
func (s *RunState) Forecast() *forecast.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forecast
}

// SetOutcomes stores the analyzer outcomes
func (s *RunState) SetOutcomes(o []analysis.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = o
}

// Outcomes returns the analyzer outcomes
func (s *RunState) Outcomes() []analysis.Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcomes
}

// AddOutputs records files written by a step
func (s *RunState) AddOutputs(stepID string, paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[stepID] = append(s.outputs[stepID], paths...)
}

// Outputs returns the files written by a step
func (s *RunState) Outputs(stepID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.outputs[stepID]...)
}

// GeneratedAt is the timestamp stamped on every report of the run
func (s *RunState) GeneratedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generatedAt.IsZero() {
		s.generatedAt = time.Now()
	}
	return s.generatedAt
}

// FailedSteps returns the IDs of failed steps
func (s *RunState) FailedSteps() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for id, st := range s.Steps {
		if st.CurrentStatus() == StepStatusFailed {
			out = append(out, id)
		}
	}
	return out
}
