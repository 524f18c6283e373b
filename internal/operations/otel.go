package operations

import (
	"context"
	"fmt"
	"time"

	"olistcli/internal/infrastructure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	TracerName = "olistcli/operations"
)

// StepTracer provides OpenTelemetry instrumentation for pipeline runs.
// With no metrics only spans are produced.
type StepTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStepTracer creates a tracer using the global tracer provider
func NewStepTracer(metrics *infrastructure.PipelineMetrics) *StepTracer {
	return &StepTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// TraceRun creates a span for the entire run
func (t *StepTracer) TraceRun(ctx context.Context, runID string, req Request) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.StringSlice("run.steps", req.Steps),
			attribute.Bool("run.from_cleaned", req.FromCleaned),
			attribute.Bool("run.skip_reports", req.SkipReports),
		),
	)
}

// TraceStep creates a span for one step
func (t *StepTracer) TraceStep(ctx context.Context, runID string, step Step) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("pipeline.step.%s", step.ID()),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
}

// EndStep closes a step span and records step metrics
func (t *StepTracer) EndStep(ctx context.Context, span trace.Span, runID, stepID string, st *StepState) {
	status := st.CurrentStatus()
	span.SetAttributes(
		attribute.String("step.status", string(status)),
		attribute.Int("step.attempts", st.Attempts),
	)

	switch status {
	case StepStatusFailed:
		if st.Error != nil {
			span.RecordError(st.Error)
			span.SetStatus(codes.Error, st.Error.Error())
		}
	case StepStatusCompleted:
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	// Skipped and blocked steps did no work
	if status == StepStatusCompleted || status == StepStatusFailed {
		infrastructure.RecordStepMetrics(ctx, t.metrics, runID, stepID, st.Duration(), status == StepStatusCompleted)
	}
}

// EndRun closes the run span and records run metrics
func (t *StepTracer) EndRun(ctx context.Context, span trace.Span, state *RunState) {
	status := state.CurrentStatus()
	span.SetAttributes(attribute.String("run.status", string(status)))
	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if t.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	t.metrics.RunsTotal.Add(ctx, 1, attrs)
	t.metrics.RunDuration.Record(ctx, state.Duration().Seconds(), attrs)
}

// RecordOutputs counts files written by a step
func (t *StepTracer) RecordOutputs(ctx context.Context, stepID string, n int) {
	if t.metrics == nil || n == 0 {
		return
	}
	t.metrics.DatasetsWritten.Add(ctx, int64(n), metric.WithAttributes(attribute.String("step.id", stepID)))
}

// spanEvent adds an event to the current span when it is recording
func spanEvent(ctx context.Context, name string, kv ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(kv...), trace.WithTimestamp(time.Now()))
	}
}
