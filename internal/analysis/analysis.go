package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/internal/features"
	"olistcli/internal/forecast"
)

// ErrMissingData is wrapped by analyzers whose required inputs were not
// loaded or built
var ErrMissingData = errors.New("required data not available")

// Input is everything an analyzer may read. Tables are the cleaned source
// tables, Features the master datasets, Forecast the optional forecaster
// output.
type Input struct {
	Tables   dataset.TableSet
	Features *features.Result
	Forecast *forecast.Result
}

// Insight is one headline finding of an analyzer
type Insight struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// ChartKind selects how a chart is drawn
type ChartKind string

// Chart kinds
const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartPie     ChartKind = "pie"
	ChartScatter ChartKind = "scatter"
)

// Series is one named value sequence aligned with Chart.Categories
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart describes a chart independently of the output format. Scatter
// charts plot the second series against the first and use Categories as
// point labels.
type Chart struct {
	Title      string    `json:"title"`
	Kind       ChartKind `json:"kind"`
	Categories []string  `json:"categories"`
	Series     []Series  `json:"series"`
}

// Report is the typed result of one analyzer
type Report interface {
	// Name is the file stem of the report outputs, e.g. market_expansion
	Name() string
	Title() string
	WriteMarkdown(w io.Writer, generated time.Time) error
	Insights() []Insight
	Charts() []Chart
}

// Analyzer turns master datasets into a Report
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, in Input) (Report, error)
}

// Outcome is the result of one analyzer run. Err is set when the analyzer
// failed; Report is nil in that case.
type Outcome struct {
	Analyzer string
	Report   Report
	Err      error
	Duration time.Duration
}

// Runner executes analyzers concurrently
type Runner struct {
	analyzers []Analyzer
	logger    *slog.Logger
}

// NewRunner creates a runner. A nil logger uses slog.Default().
func NewRunner(logger *slog.Logger, analyzers ...Analyzer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{analyzers: analyzers, logger: logger}
}

// Run executes every analyzer and returns one Outcome per analyzer in
// registration order. An analyzer failure is recorded in its Outcome and
// does not stop the others; only context cancellation returns an error.
func (r *Runner) Run(ctx context.Context, in Input) ([]Outcome, error) {
	if in.Features == nil {
		in.Features = &features.Result{}
	}
	slots := make([]Outcome, len(r.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range r.analyzers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			rep, err := a.Analyze(gctx, in)
			slots[i] = Outcome{Analyzer: a.Name(), Report: rep, Err: err, Duration: time.Since(start)}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range slots {
		if o.Err != nil {
			r.logger.ErrorContext(ctx, "Analyzer failed",
				slog.String("analyzer", o.Analyzer),
				slog.String("error", o.Err.Error()))
			continue
		}
		r.logger.InfoContext(ctx, "Analyzer completed",
			slog.String("analyzer", o.Analyzer),
			slog.Int("insights", len(o.Report.Insights())),
			slog.Int("charts", len(o.Report.Charts())),
			slog.Duration("duration", o.Duration))
	}
	return slots, nil
}

// requireTables returns an ErrMissingData error naming the first table
// that was not loaded
func requireTables(ts dataset.TableSet, tables ...dataset.Table) error {
	for _, t := range tables {
		if !ts.Has(t) {
			return fmt.Errorf("%w: table %s", ErrMissingData, t)
		}
	}
	return nil
}

// DefaultAnalyzers returns the four domain analyzers in report order
func DefaultAnalyzers(cfg config.FeaturesConfig) []Analyzer {
	return []Analyzer{
		NewMarketAnalyzer(cfg),
		NewCustomerAnalyzer(),
		NewSeasonalAnalyzer(),
		NewPaymentAnalyzer(),
	}
}
