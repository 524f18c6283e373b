package exporter

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"olistcli/internal/analysis"
	"olistcli/internal/config"
)

// ReportWriter writes the outputs of the analyze step: one markdown report
// and one chart workbook per analyzer plus the executive PDF summary
type ReportWriter struct {
	paths  *config.Paths
	charts *ChartWriter
	logger *slog.Logger
}

// NewReportWriter creates a report writer. A nil logger uses slog.Default().
func NewReportWriter(paths *config.Paths, logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{paths: paths, charts: NewChartWriter(paths, logger), logger: logger}
}

// WriteMarkdown writes reports/<name>_report.md
func (w *ReportWriter) WriteMarkdown(rep analysis.Report, generated time.Time) (string, error) {
	path := w.paths.GetReportPath(rep.Name() + "_report.md")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := rep.WriteMarkdown(bw, generated); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", rep.Name(), err)
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	return path, f.Close()
}

// WriteAll writes the markdown report and chart workbook of every successful
// outcome and then the executive summary. Per-report failures are logged and
// collected; the returned error is the first of them.
func (w *ReportWriter) WriteAll(ctx context.Context, outcomes []analysis.Outcome, generated time.Time) ([]string, error) {
	var (
		written  []string
		firstErr error
	)
	fail := func(report string, err error) {
		w.logger.ErrorContext(ctx, "Failed to write report output",
			slog.String("report", report),
			slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, o := range outcomes {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if o.Err != nil || o.Report == nil {
			continue
		}
		md, err := w.WriteMarkdown(o.Report, generated)
		if err != nil {
			fail(o.Analyzer, err)
		} else {
			written = append(written, md)
		}
		xlsx, err := w.charts.WriteCharts(o.Report.Name(), o.Report.Charts())
		switch {
		case err != nil:
			fail(o.Analyzer, err)
		case xlsx != "":
			written = append(written, xlsx)
		}
	}

	if err := WriteExecutiveSummary(w.paths.ExecutiveSummaryPDF, outcomes, generated); err != nil {
		fail("executive_summary", err)
	} else {
		written = append(written, w.paths.ExecutiveSummaryPDF)
		w.logger.InfoContext(ctx, "Saved executive summary",
			slog.String("path", w.paths.ExecutiveSummaryPDF))
	}
	return written, firstErr
}
