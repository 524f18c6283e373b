package operations_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/operations"
	"olistcli/internal/operations/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, cfg *operations.Config, steps ...operations.Step) *operations.Manager {
	t.Helper()
	registry := operations.NewRegistry()
	for _, s := range steps {
		require.NoError(t, registry.Register(s))
	}
	if cfg == nil {
		cfg = operations.NewConfig()
	}
	return operations.NewManager(registry, cfg, quietLogger(), nil)
}

func TestManagerExecutesInDependencyOrder(t *testing.T) {
	steps, order := testutil.RecordingSteps("load", "clean", "validate")
	// Register out of order
	m := newTestManager(t, nil, steps[2], steps[0], steps[1])

	resp, err := m.Execute(context.Background(), operations.Request{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	testutil.AssertRunStatus(t, resp, operations.RunStatusCompleted)
	assert.Equal(t, []string{"load", "clean", "validate"}, order())
	for _, id := range []string{"load", "clean", "validate"} {
		testutil.AssertStepStatus(t, resp, id, operations.StepStatusCompleted)
	}
}

func TestManagerKeepsRequestID(t *testing.T) {
	m := newTestManager(t, nil, testutil.NewMockStep("a"))

	resp, err := m.Execute(context.Background(), operations.Request{ID: "run-42"})
	require.NoError(t, err)
	assert.Equal(t, "run-42", resp.ID)
}

func TestManagerSkipLetsDependentsRun(t *testing.T) {
	load := testutil.NewMockStep("load")
	clean := testutil.NewMockStep("clean", "load")
	clean.ValidateFunc = func(*operations.RunState) error {
		return fmt.Errorf("%w: input is already cleaned", operations.ErrSkipStep)
	}
	validate := testutil.NewMockStep("validate", "clean")

	m := newTestManager(t, nil, load, clean, validate)
	resp, err := m.Execute(context.Background(), operations.Request{})
	require.NoError(t, err)

	testutil.AssertRunStatus(t, resp, operations.RunStatusCompleted)
	testutil.AssertStepStatus(t, resp, "clean", operations.StepStatusSkipped)
	testutil.AssertStepStatus(t, resp, "validate", operations.StepStatusCompleted)
	assert.Equal(t, 0, clean.GetExecuteCalls())
	assert.Equal(t, 1, validate.GetExecuteCalls())
}

func TestManagerFailureBlocksRemainingSteps(t *testing.T) {
	load := testutil.NewMockStep("load")
	clean := testutil.FailingStep("clean", errors.New("disk full"), "load")
	validate := testutil.NewMockStep("validate", "clean")
	report := testutil.NewMockStep("report")

	m := newTestManager(t, nil, load, clean, validate, report)
	resp, err := m.Execute(context.Background(), operations.Request{})
	require.Error(t, err)

	testutil.AssertErrorType(t, err, operations.ErrorTypeExecution)
	testutil.AssertRunStatus(t, resp, operations.RunStatusFailed)
	testutil.AssertStepStatus(t, resp, "load", operations.StepStatusCompleted)
	testutil.AssertStepStatus(t, resp, "clean", operations.StepStatusFailed)
	testutil.AssertStepStatus(t, resp, "validate", operations.StepStatusBlocked)
	testutil.AssertStepStatus(t, resp, "report", operations.StepStatusBlocked)
	assert.Contains(t, resp.Error, "disk full")
	assert.Equal(t, 0, report.GetExecuteCalls())
}

func TestManagerContinueOnError(t *testing.T) {
	load := testutil.FailingStep("load", errors.New("no files"))
	clean := testutil.NewMockStep("clean", "load")
	validate := testutil.NewMockStep("validate", "clean")
	standalone := testutil.NewMockStep("standalone")

	cfg := operations.NewConfig()
	cfg.ContinueOnError = true
	m := newTestManager(t, cfg, load, clean, validate, standalone)

	resp, err := m.Execute(context.Background(), operations.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files")

	testutil.AssertRunStatus(t, resp, operations.RunStatusFailed)
	testutil.AssertStepStatus(t, resp, "clean", operations.StepStatusBlocked)
	testutil.AssertStepStatus(t, resp, "validate", operations.StepStatusBlocked)
	testutil.AssertStepStatus(t, resp, "standalone", operations.StepStatusCompleted)
	assert.Equal(t, "dependency clean did not complete", resp.Steps["validate"].Message)
}

func TestManagerRetriesRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	flaky := testutil.NewMockStep("flaky")
	flaky.ExecuteFunc = func(context.Context, *operations.RunState) error {
		if calls.Add(1) < 3 {
			return operations.NewExecutionError("flaky", errors.New("temporary"), true)
		}
		return nil
	}

	cfg := operations.NewConfig()
	cfg.RetryConfig = operations.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	m := newTestManager(t, cfg, flaky)

	resp, err := m.Execute(context.Background(), operations.Request{})
	require.NoError(t, err)
	testutil.AssertStepStatus(t, resp, "flaky", operations.StepStatusCompleted)
	assert.Equal(t, 3, flaky.GetExecuteCalls())
	assert.Equal(t, 3, resp.Steps["flaky"].Attempts)
}

func TestManagerDoesNotRetryPermanentErrors(t *testing.T) {
	step := testutil.FailingStep("bad", errors.New("permanent"))

	cfg := operations.NewConfig()
	cfg.RetryConfig = operations.RetryConfig{MaxAttempts: 5, InitialDelay: time.Millisecond, Multiplier: 2}
	m := newTestManager(t, cfg, step)

	_, err := m.Execute(context.Background(), operations.Request{})
	require.Error(t, err)
	assert.Equal(t, 1, step.GetExecuteCalls())
}

func TestManagerRetriesExhausted(t *testing.T) {
	step := testutil.FailingStep("flaky", operations.NewExecutionError("flaky", errors.New("temporary"), true))

	cfg := operations.NewConfig()
	cfg.RetryConfig = operations.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 2}
	m := newTestManager(t, cfg, step)

	resp, err := m.Execute(context.Background(), operations.Request{})
	require.Error(t, err)
	assert.Equal(t, 2, step.GetExecuteCalls())
	testutil.AssertStepStatus(t, resp, "flaky", operations.StepStatusFailed)
}

func TestManagerValidationFailure(t *testing.T) {
	step := testutil.NewMockStep("load")
	step.ValidateFunc = func(*operations.RunState) error {
		return errors.New("raw data directory missing")
	}
	m := newTestManager(t, nil, step)

	resp, err := m.Execute(context.Background(), operations.Request{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeValidation)
	testutil.AssertStepStatus(t, resp, "load", operations.StepStatusFailed)
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManagerSingleStepIgnoresDependenciesOutsideRun(t *testing.T) {
	load := testutil.NewMockStep("load")
	clean := testutil.NewMockStep("clean", "load")
	m := newTestManager(t, nil, load, clean)

	resp, err := m.Execute(context.Background(), operations.Request{Steps: []string{"clean"}})
	require.NoError(t, err)

	assert.Len(t, resp.Steps, 1)
	testutil.AssertStepStatus(t, resp, "clean", operations.StepStatusCompleted)
	assert.Equal(t, 0, load.GetExecuteCalls())
}

func TestManagerUnknownStep(t *testing.T) {
	m := newTestManager(t, nil, testutil.NewMockStep("load"))

	resp, err := m.Execute(context.Background(), operations.Request{Steps: []string{"nope"}})
	testutil.AssertErrorType(t, err, operations.ErrorTypeFatal)
	testutil.AssertRunStatus(t, resp, operations.RunStatusFailed)
}

func TestManagerCancelledBeforeStart(t *testing.T) {
	steps, order := testutil.RecordingSteps("a", "b")
	m := newTestManager(t, nil, steps[0], steps[1])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := m.Execute(ctx, operations.Request{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeCancellation)
	testutil.AssertRunStatus(t, resp, operations.RunStatusCancelled)
	testutil.AssertStepStatus(t, resp, "a", operations.StepStatusBlocked)
	assert.Empty(t, order())
}

func TestManagerCancelledDuringStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := testutil.NewMockStep("a")
	first.ExecuteFunc = func(stepCtx context.Context, _ *operations.RunState) error {
		cancel()
		<-stepCtx.Done()
		return stepCtx.Err()
	}
	second := testutil.NewMockStep("b")

	cfg := operations.NewConfig()
	cfg.ContinueOnError = true
	m := newTestManager(t, cfg, first, second)

	resp, err := m.Execute(ctx, operations.Request{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeCancellation)
	testutil.AssertRunStatus(t, resp, operations.RunStatusCancelled)
	testutil.AssertStepStatus(t, resp, "a", operations.StepStatusFailed)
	testutil.AssertStepStatus(t, resp, "b", operations.StepStatusBlocked)
	assert.Equal(t, 0, second.GetExecuteCalls())
}

func TestManagerStepTimeout(t *testing.T) {
	slow := testutil.NewMockStep("slow")
	slow.ExecuteFunc = func(ctx context.Context, _ *operations.RunState) error {
		<-ctx.Done()
		return ctx.Err()
	}

	cfg := operations.NewConfig()
	cfg.SetStepTimeout("slow", 10*time.Millisecond)
	m := newTestManager(t, cfg, slow)

	resp, err := m.Execute(context.Background(), operations.Request{})
	testutil.AssertErrorType(t, err, operations.ErrorTypeTimeout)
	testutil.AssertRunStatus(t, resp, operations.RunStatusFailed)
	testutil.AssertStepStatus(t, resp, "slow", operations.StepStatusFailed)
}

func TestManagerWritesManifest(t *testing.T) {
	load := testutil.NewMockStep("load")
	load.ExecuteFunc = func(_ context.Context, state *operations.RunState) error {
		state.AddOutputs("load", "tables.csv")
		return nil
	}
	clean := testutil.FailingStep("clean", errors.New("boom"), "load")

	cfg := operations.NewConfig()
	cfg.ManifestPath = filepath.Join(t.TempDir(), "reports", operations.ManifestFile)
	m := newTestManager(t, cfg, load, clean)

	resp, err := m.Execute(context.Background(), operations.Request{SkipReports: true})
	require.Error(t, err)

	manifest, err := operations.ReadManifest(cfg.ManifestPath)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, manifest.RunID)
	assert.Equal(t, operations.RunStatusFailed, manifest.Status)
	assert.True(t, manifest.Request.SkipReports)
	assert.NotEmpty(t, manifest.TraceID)
	require.Len(t, manifest.Steps, 2)

	rec, ok := manifest.Step("load")
	require.True(t, ok)
	assert.Equal(t, operations.StepStatusCompleted, rec.Status)
	assert.Equal(t, []string{"tables.csv"}, rec.Outputs)

	rec, ok = manifest.Step("clean")
	require.True(t, ok)
	assert.Equal(t, operations.StepStatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "boom")
}

func TestConfigStepTimeout(t *testing.T) {
	cfg := operations.NewConfig()
	assert.Equal(t, operations.DefaultStepTimeout, cfg.GetStepTimeout("load"))

	cfg.DefaultTimeout = time.Minute
	cfg.SetStepTimeout("features", 5*time.Minute)
	assert.Equal(t, time.Minute, cfg.GetStepTimeout("load"))
	assert.Equal(t, 5*time.Minute, cfg.GetStepTimeout("features"))
}
