package operations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSkipStep is returned (possibly wrapped) by Step.Validate when the step
// has nothing to do in this run. The step is marked skipped and its
// dependents still run.
var ErrSkipStep = errors.New("step skipped")

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step with the given context and run state
	Execute(ctx context.Context, state *RunState) error

	// Validate checks if the step can be executed with the current state
	Validate(state *RunState) error

	// GetDependencies returns the IDs of steps that must complete before
	// this step
	GetDependencies() []string
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	// StepStatusSkipped is an intentional skip; dependents may still run
	StepStatusSkipped StepStatus = "skipped"
	// StepStatusBlocked means a dependency failed or was blocked
	StepStatusBlocked StepStatus = "blocked"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Attempts  int            `json:"attempts"`
	Message   string         `json:"message,omitempty"`
	Error     error          `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewStepState creates a new step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]any),
	}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.EndTime = nil
	s.Status = StepStatusActive
	s.Attempts++
}

// Complete marks the step as completed and sets the end time
func (s *StepState) Complete() {
	s.finish(StepStatusCompleted, "", nil)
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.finish(StepStatusFailed, "", err)
}

// Skip marks the step as intentionally skipped
func (s *StepState) Skip(reason string) {
	s.finish(StepStatusSkipped, reason, nil)
}

// Block marks the step as not run because a dependency did not complete
func (s *StepState) Block(reason string) {
	s.finish(StepStatusBlocked, reason, nil)
}

func (s *StepState) finish(status StepStatus, message string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = status
	s.Error = err
	if message != "" {
		s.Message = message
	}
}

// SetMetadata records a value describing the step's work
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// CurrentStatus returns the status under the state lock
func (s *StepState) CurrentStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns the duration of the step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// satisfied reports whether dependents of this step may run
func (s *StepState) satisfied() bool {
	st := s.CurrentStatus()
	return st == StepStatusCompleted || st == StepStatusSkipped
}

// BaseStep provides common functionality for step implementations
type BaseStep struct {
	id           string
	name         string
	dependencies []string
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string, dependencies ...string) BaseStep {
	if dependencies == nil {
		dependencies = []string{}
	}
	return BaseStep{
		id:           id,
		name:         name,
		dependencies: dependencies,
	}
}

// ID returns the step ID
func (b *BaseStep) ID() string { return b.id }

// Name returns the step name
func (b *BaseStep) Name() string { return b.name }

// GetDependencies returns the step dependencies
func (b *BaseStep) GetDependencies() []string { return b.dependencies }

// Validate provides a default validation that always passes
func (b *BaseStep) Validate(state *RunState) error {
	if state == nil {
		return fmt.Errorf("step %s: nil run state", b.id)
	}
	return nil
}
