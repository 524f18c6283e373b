package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"olistcli/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider, "tracing exporter is off by default")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.MetricExporter = "statsd"

	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func TestOTelConfigFrom(t *testing.T) {
	tests := []struct {
		name        string
		in          config.TelemetryConfig
		wantTrace   string
		wantMetrics string
	}{
		{"enabled", config.TelemetryConfig{Enabled: true, SamplingRatio: 1}, "none", "prometheus"},
		{"stdout traces", config.TelemetryConfig{Enabled: true, TraceStdout: true, SamplingRatio: 0.5}, "stdout", "prometheus"},
		{"disabled", config.TelemetryConfig{Enabled: false, TraceStdout: true}, "none", "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := OTelConfigFrom(tt.in)
			assert.Equal(t, tt.wantTrace, cfg.TraceExporter)
			assert.Equal(t, tt.wantMetrics, cfg.MetricExporter)
		})
	}
}

func TestPipelineMetrics_ExposedOnPrometheus(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordStepMetrics(ctx, metrics, "run-1", "load", 150*time.Millisecond, true)
	RecordStepMetrics(ctx, metrics, "run-1", "clean", 20*time.Millisecond, false)
	RecordRows(ctx, metrics, "orders", 99441)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "pipeline_steps_total")
	assert.Contains(t, body, "pipeline_step_errors_total")
	assert.Contains(t, body, "pipeline_rows_processed_total")
}

func TestRecordHelpers_NilSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordStepMetrics(ctx, nil, "r", "s", time.Second, true)
		RecordRows(ctx, nil, "orders", 10)
		RecordError(ctx, errors.New("boom"))
	})
}

func TestTraceIDFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))

	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := otel.Tracer("test").Start(context.Background(), "step")
	defer span.End()
	assert.Len(t, TraceIDFromContext(ctx), 32)
}
