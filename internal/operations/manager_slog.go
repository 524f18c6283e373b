package operations

import (
	"context"
	"log/slog"
	"time"
)

// Run and step events. The run and trace IDs are not repeated here: the
// process logger reads them from ctx.

func (m *Manager) logRunStart(ctx context.Context, req Request, order []string) {
	m.logger.InfoContext(ctx, "run_start",
		slog.Any("steps", order),
		slog.Bool("from_cleaned", req.FromCleaned),
		slog.Bool("skip_reports", req.SkipReports))
}

func (m *Manager) logRunComplete(ctx context.Context, state *RunState) {
	level := slog.LevelInfo
	if state.CurrentStatus() != RunStatusCompleted {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("status", string(state.CurrentStatus())),
		slog.Duration("duration", state.Duration()),
	}
	if failed := state.FailedSteps(); len(failed) > 0 {
		attrs = append(attrs, slog.Any("failed_steps", failed))
	}
	m.logger.LogAttrs(ctx, level, "run_complete", attrs...)
}

// logRunError logs a run that could not start
func (m *Manager) logRunError(ctx context.Context, err error) {
	m.logger.ErrorContext(ctx, "run_error", slog.String("error", err.Error()))
}

func (m *Manager) logStepStart(ctx context.Context, step Step) {
	m.logger.InfoContext(ctx, "step_start",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))
}

func (m *Manager) logStepComplete(ctx context.Context, stepID string, duration time.Duration, outputs int) {
	m.logger.InfoContext(ctx, "step_complete",
		slog.String("step", stepID),
		slog.Duration("duration", duration),
		slog.Int("outputs", outputs))
}

func (m *Manager) logStepSkipped(ctx context.Context, stepID, reason string) {
	m.logger.InfoContext(ctx, "step_skipped",
		slog.String("step", stepID),
		slog.String("reason", reason))
}

func (m *Manager) logStepBlocked(ctx context.Context, err *OperationError) {
	m.logger.WarnContext(ctx, "step_blocked",
		slog.String("step", err.Step),
		slog.Any("dependency", err.Context["depends_on"]),
		slog.String("reason", err.Message))
}

func (m *Manager) logStepError(ctx context.Context, stepID string, err error) {
	m.logger.ErrorContext(ctx, "step_error",
		slog.String("step", stepID),
		slog.String("error_type", string(GetErrorType(err))),
		slog.String("error", err.Error()))
}

func (m *Manager) logStepRetry(ctx context.Context, stepID string, attempt, maxAttempts int, delay time.Duration, err error) {
	m.logger.WarnContext(ctx, "step_retry",
		slog.String("step", stepID),
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", maxAttempts),
		slog.Duration("delay", delay),
		slog.String("error", err.Error()))
}
