package testutil

import (
	"context"
	"sync"
	"time"

	"olistcli/internal/operations"
)

// MockStep is a configurable mock implementation of the step interface
type MockStep struct {
	IDValue           string
	NameValue         string
	DependenciesValue []string

	// Configurable functions
	ExecuteFunc  func(ctx context.Context, state *operations.RunState) error
	ValidateFunc func(state *operations.RunState) error

	// Call tracking
	mu            sync.Mutex
	ExecuteCalls  int
	ExecuteTimes  []time.Time
	ValidateCalls int
}

// NewMockStep creates a mock step that succeeds
func NewMockStep(id string, deps ...string) *MockStep {
	return &MockStep{
		IDValue:           id,
		NameValue:         "Mock " + id,
		DependenciesValue: deps,
	}
}

// ID returns the step ID
func (m *MockStep) ID() string {
	return m.IDValue
}

// Name returns the step name
func (m *MockStep) Name() string {
	return m.NameValue
}

// GetDependencies returns the step dependencies
func (m *MockStep) GetDependencies() []string {
	if m.DependenciesValue == nil {
		return []string{}
	}
	return m.DependenciesValue
}

// Execute runs the mock execute function
func (m *MockStep) Execute(ctx context.Context, state *operations.RunState) error {
	m.mu.Lock()
	m.ExecuteCalls++
	m.ExecuteTimes = append(m.ExecuteTimes, time.Now())
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, state)
	}
	return nil
}

// Validate runs the mock validate function
func (m *MockStep) Validate(state *operations.RunState) error {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()

	if m.ValidateFunc != nil {
		return m.ValidateFunc(state)
	}
	return nil
}

// GetExecuteCalls returns the number of Execute calls
func (m *MockStep) GetExecuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecuteCalls
}

// GetValidateCalls returns the number of Validate calls
func (m *MockStep) GetValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ValidateCalls
}

// FailingStep returns a step whose Execute always returns err
func FailingStep(id string, err error, deps ...string) *MockStep {
	s := NewMockStep(id, deps...)
	s.ExecuteFunc = func(context.Context, *operations.RunState) error { return err }
	return s
}

// RecordingSteps builds a chain of mock steps that append their IDs to a
// shared slice in execution order
func RecordingSteps(ids ...string) ([]*MockStep, func() []string) {
	var (
		mu    sync.Mutex
		order []string
	)
	steps := make([]*MockStep, len(ids))
	for i, id := range ids {
		var deps []string
		if i > 0 {
			deps = []string{ids[i-1]}
		}
		s := NewMockStep(id, deps...)
		s.ExecuteFunc = func(context.Context, *operations.RunState) error {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
			return nil
		}
		steps[i] = s
	}
	return steps, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), order...)
	}
}
