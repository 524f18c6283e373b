package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/analysis"
	"olistcli/internal/config"
	"olistcli/internal/shared/testutil"
)

var generatedAt = time.Date(2018, 10, 17, 12, 0, 0, 0, time.UTC)

type stubReport struct {
	name   string
	charts []analysis.Chart
}

func (r stubReport) Name() string  { return r.name }
func (r stubReport) Title() string { return "Stub " + r.name }

func (r stubReport) WriteMarkdown(w io.Writer, generated time.Time) error {
	_, err := fmt.Fprintf(w, "# %s\n\nGenerated: %s\n", r.Title(), generated.Format(time.DateOnly))
	return err
}

func (r stubReport) Insights() []analysis.Insight {
	return []analysis.Insight{
		{Category: "Market", Text: "SP concentrates 42% of revenue"},
		{Category: "Growth", Text: "Tier 2 states show the largest untapped customer base across the north east region"},
	}
}

func (r stubReport) Charts() []analysis.Chart { return r.charts }

func TestExecutiveSummary(t *testing.T) {
	outcomes := []analysis.Outcome{
		{Analyzer: "market_expansion", Report: stubReport{name: "market_expansion"}},
		{Analyzer: "payment_operations", Err: errors.New("required data not available: table customers")},
	}

	b, err := ExecutiveSummary(outcomes, generatedAt)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestReportWriter_WriteAll(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	logger, capture := testutil.NewCaptureLogger()
	w := NewReportWriter(paths, logger)

	outcomes := []analysis.Outcome{
		{Analyzer: "market_expansion", Report: stubReport{name: "market_expansion", charts: sampleCharts()}},
		{Analyzer: "customer_analytics", Report: stubReport{name: "customer_analytics"}},
		{Analyzer: "payment_operations", Err: analysis.ErrMissingData},
	}
	written, err := w.WriteAll(context.Background(), outcomes, generatedAt)
	require.NoError(t, err)

	assert.Equal(t, []string{
		paths.GetReportPath("market_expansion_report.md"),
		paths.GetReportPath("market_expansion_charts.xlsx"),
		paths.GetReportPath("customer_analytics_report.md"),
		paths.ExecutiveSummaryPDF,
	}, written)
	assert.NoFileExists(t, paths.GetReportPath("payment_operations_report.md"))

	md, err := os.ReadFile(paths.GetReportPath("market_expansion_report.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Stub market_expansion\n\nGenerated: 2018-10-17\n", string(md))
	assert.True(t, capture.Contains(slog.LevelInfo, "Saved executive summary"))
}

func TestReportWriter_WriteAll_Canceled(t *testing.T) {
	w := NewReportWriter(config.NewPaths(t.TempDir()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.WriteAll(ctx, []analysis.Outcome{{Analyzer: "x", Report: stubReport{name: "x"}}}, generatedAt)
	assert.ErrorIs(t, err, context.Canceled)
}
