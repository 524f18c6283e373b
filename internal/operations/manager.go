package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"olistcli/internal/infrastructure"
)

// Manager orchestrates pipeline runs
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	tracer   *StepTracer
}

// NewManager creates a new pipeline manager. metrics may be nil.
func NewManager(registry *Registry, config *Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		logger:   logger,
		tracer:   NewStepTracer(metrics),
	}
}

// Registry returns the step registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Config returns the execution configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Execute runs the requested steps in dependency order
func (m *Manager) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID()
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)
	ctx = infrastructure.EnsureTraceID(ctx)

	state := NewRunState(req.ID, req)

	var (
		steps []Step
		err   error
	)
	if len(req.Steps) > 0 {
		steps, err = m.registry.Select(req.Steps)
	} else {
		steps, err = m.registry.GetDependencyOrder()
	}
	if err != nil {
		err = NewFatalError("failed to resolve steps", err)
		m.logRunError(ctx, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	order := make([]string, len(steps))
	for i, step := range steps {
		state.SetStep(step.ID(), NewStepState(step.ID(), step.Name()))
		order[i] = step.ID()
	}

	ctx, span := m.tracer.TraceRun(ctx, req.ID, req)
	state.Start()
	m.logRunStart(ctx, req, order)

	err = m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	m.tracer.EndRun(ctx, span, state)
	m.writeManifest(ctx, state, order)
	m.logRunComplete(ctx, state)

	return m.createResponse(state), err
}

// executeSequential executes steps one by one. A step whose dependency did
// not complete is blocked; dependencies outside the run are ignored.
func (m *Manager) executeSequential(ctx context.Context, state *RunState, steps []Step) error {
	inRun := make(map[string]bool, len(steps))
	for _, step := range steps {
		inRun[step.ID()] = true
	}

	var firstErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.blockRemaining(state, steps[i:], "run cancelled")
			return NewCancellationError(step.ID(), err)
		}

		st := state.GetStep(step.ID())
		if dep, ok := m.dependenciesSatisfied(state, step, inRun); !ok {
			derr := NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s did not complete", dep))
			st.Block(derr.Message)
			m.logStepBlocked(ctx, derr)
			continue
		}

		err := m.executeStep(ctx, state, step)
		if err == nil {
			continue
		}
		if GetErrorType(err) == ErrorTypeCancellation {
			m.blockRemaining(state, steps[i+1:], "run cancelled")
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		if !m.config.ContinueOnError {
			m.blockRemaining(state, steps[i+1:], fmt.Sprintf("run stopped after %s failed", step.ID()))
			return err
		}
	}
	return firstErr
}

// executeStep validates and runs a single step with retry logic
func (m *Manager) executeStep(ctx context.Context, state *RunState, step Step) error {
	id := step.ID()
	st := state.GetStep(id)
	if st == nil {
		return NewFatalError(fmt.Sprintf("no state for step %s", id), nil)
	}

	spanCtx, span := m.tracer.TraceStep(ctx, state.ID, step)
	defer m.tracer.EndStep(spanCtx, span, state.ID, id, st)

	m.logStepStart(spanCtx, step)

	if err := step.Validate(state); err != nil {
		if errors.Is(err, ErrSkipStep) {
			st.Skip(err.Error())
			m.logStepSkipped(spanCtx, id, err.Error())
			return nil
		}
		verr := NewValidationError(id, err.Error())
		st.Fail(verr)
		m.logStepError(spanCtx, id, verr)
		return verr
	}

	timeout := m.config.GetStepTimeout(id)
	stepCtx, cancel := context.WithTimeout(spanCtx, timeout)
	defer cancel()

	retry := m.config.RetryConfig
	attempts := max(1, retry.MaxAttempts)

	for attempt := 1; ; attempt++ {
		st.Start()
		err := step.Execute(stepCtx, state)
		if err == nil {
			st.Complete()
			outputs := state.Outputs(id)
			m.tracer.RecordOutputs(spanCtx, id, len(outputs))
			m.logStepComplete(spanCtx, id, st.Duration(), len(outputs))
			return nil
		}
		if errors.Is(err, ErrSkipStep) {
			st.Skip(err.Error())
			m.logStepSkipped(spanCtx, id, err.Error())
			return nil
		}
		if cerr := m.contextError(ctx, stepCtx, id, timeout); cerr != nil {
			st.Fail(cerr)
			m.logStepError(spanCtx, id, cerr)
			return cerr
		}
		if !IsRetryable(err) || attempt >= attempts {
			werr := WrapError(err, id, "step execution failed")
			st.Fail(werr)
			m.logStepError(spanCtx, id, werr)
			return werr
		}

		delay := retry.retryDelay(attempt)
		m.logStepRetry(spanCtx, id, attempt, attempts, delay, err)

		select {
		case <-time.After(delay):
		case <-stepCtx.Done():
			cerr := m.contextError(ctx, stepCtx, id, timeout)
			st.Fail(cerr)
			m.logStepError(spanCtx, id, cerr)
			return cerr
		}
	}
}

// contextError maps a finished step context to a cancellation or timeout
// error. It returns nil while the step context is live.
func (m *Manager) contextError(runCtx, stepCtx context.Context, stepID string, timeout time.Duration) error {
	if err := runCtx.Err(); err != nil {
		return NewCancellationError(stepID, err)
	}
	if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(stepID, timeout.String())
	}
	return nil
}

// dependenciesSatisfied returns the first dependency in the run that did
// not complete or skip
func (m *Manager) dependenciesSatisfied(state *RunState, step Step, inRun map[string]bool) (string, bool) {
	for _, dep := range step.GetDependencies() {
		if !inRun[dep] {
			continue
		}
		ds := state.GetStep(dep)
		if ds == nil || !ds.satisfied() {
			return dep, false
		}
	}
	return "", true
}

func (m *Manager) blockRemaining(state *RunState, steps []Step, reason string) {
	for _, step := range steps {
		if st := state.GetStep(step.ID()); st != nil && st.CurrentStatus() == StepStatusPending {
			st.Block(reason)
		}
	}
}

func (m *Manager) writeManifest(ctx context.Context, state *RunState, order []string) {
	if m.config.ManifestPath == "" {
		return
	}
	manifest := NewRunManifest(state, order)
	manifest.TraceID = infrastructure.GetTraceID(ctx)
	if err := manifest.WriteJSON(m.config.ManifestPath); err != nil {
		m.logger.WarnContext(ctx, "manifest_write_failed",
			slog.String("path", m.config.ManifestPath),
			slog.String("error", err.Error()))
		return
	}
	m.logger.DebugContext(ctx, "manifest_written", slog.String("path", m.config.ManifestPath))
}

// createResponse creates a run response from state
func (m *Manager) createResponse(state *RunState) *Response {
	resp := &Response{
		ID:       state.ID,
		Status:   state.CurrentStatus(),
		Duration: state.Duration(),
		Steps:    make(map[string]*StepState),
	}
	state.mu.RLock()
	for id, st := range state.Steps {
		resp.Steps[id] = st
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	state.mu.RUnlock()
	return resp
}
