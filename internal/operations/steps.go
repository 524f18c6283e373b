package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"olistcli/internal/analysis"
	"olistcli/internal/cleaning"
	"olistcli/internal/config"
	"olistcli/internal/dataset"
	"olistcli/internal/exporter"
	"olistcli/internal/features"
	"olistcli/internal/forecast"
	"olistcli/internal/infrastructure"
	"olistcli/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Deps carries what the pipeline steps share
type Deps struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics
}

func (d Deps) withDefaults() Deps {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Paths == nil {
		d.Paths = d.Config.ResolvedPaths()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

func (d Deps) stepLogger(id string) *slog.Logger {
	return d.Logger.With(slog.String("step", id))
}

// DefaultSteps returns the five pipeline steps in execution order
func DefaultSteps(d Deps) []Step {
	d = d.withDefaults()
	return []Step{
		NewLoadStep(d),
		NewCleanStep(d),
		NewValidateStep(d),
		NewFeaturesStep(d),
		NewAnalyzeStep(d),
	}
}

// NewDefaultRegistry returns a registry holding DefaultSteps
func NewDefaultRegistry(d Deps) (*Registry, error) {
	r := NewRegistry()
	for _, s := range DefaultSteps(d) {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	if err := r.ValidateDependencies(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadStep reads the source tables, or the cleaned tables when the run
// starts from cleaned data
type LoadStep struct {
	BaseStep
	deps   Deps
	logger *slog.Logger
}

// NewLoadStep creates the load step
func NewLoadStep(d Deps) *LoadStep {
	d = d.withDefaults()
	return &LoadStep{
		BaseStep: NewBaseStep(StepIDLoad, StepNameLoad),
		deps:     d,
		logger:   d.stepLogger(StepIDLoad),
	}
}

// Validate checks that the raw directory exists and holds at least one
// source file
func (s *LoadStep) Validate(state *RunState) error {
	if err := s.BaseStep.Validate(state); err != nil {
		return err
	}
	if state.Request.FromCleaned {
		return nil
	}
	inv, err := validation.NewFileValidator(s.logger).ValidateRawDirectory(s.deps.Paths.RawDir)
	if err != nil {
		return err
	}
	if len(inv.Found) == 0 {
		return fmt.Errorf("no source files found in %s", s.deps.Paths.RawDir)
	}
	return nil
}

// Execute loads every table and logs the dataset summary and key
// relationships
func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	dir := s.deps.Paths.RawDir
	if state.Request.FromCleaned {
		dir = s.deps.Paths.CleanedDir
	}
	s.logger.InfoContext(ctx, "Starting data loading step",
		slog.String("run_id", state.ID),
		slog.String("dir", dir),
		slog.Bool("from_cleaned", state.Request.FromCleaned))

	res, err := s.deps.load(ctx, dir, state.Request.FromCleaned)
	if err != nil {
		return err
	}
	loaded := res.Tables.Loaded()
	if len(loaded) == 0 {
		return fmt.Errorf("no tables could be loaded from %s", dir)
	}

	for _, sum := range dataset.Summarize(res.Tables) {
		s.logger.InfoContext(ctx, "Dataset summary",
			slog.String("table", string(sum.Table)),
			slog.Int("rows", sum.Rows),
			slog.Int("columns", sum.Columns),
			slog.Int("missing_values", sum.MissingValues),
			slog.Float64("missing_pct", sum.MissingPct))
		infrastructure.RecordRows(ctx, s.deps.Metrics, string(sum.Table), sum.Rows)
	}
	for _, km := range dataset.CheckRelationships(res.Tables) {
		s.logger.InfoContext(ctx, "Key relationship",
			slog.String("relationship", km.Name),
			slog.Int("matched", km.Matched),
			slog.Int("left_only", km.LeftOnly),
			slog.Int("right_only", km.RightOnly))
	}

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("tables_loaded", len(loaded))
		st.SetMetadata("tables_skipped", len(res.Issues))
	}
	spanEvent(ctx, "tables.loaded",
		attribute.Int("tables", len(loaded)),
		attribute.Int("issues", len(res.Issues)))

	state.SetRawTables(res.Tables)
	if state.Request.FromCleaned {
		state.SetCleanedTables(res.Tables)
	}
	return nil
}

// CleanStep applies the cleaning rules and saves the cleaned tables
type CleanStep struct {
	BaseStep
	deps   Deps
	logger *slog.Logger
}

// NewCleanStep creates the clean step
func NewCleanStep(d Deps) *CleanStep {
	d = d.withDefaults()
	return &CleanStep{
		BaseStep: NewBaseStep(StepIDClean, StepNameClean, StepIDLoad),
		deps:     d,
		logger:   d.stepLogger(StepIDClean),
	}
}

// Validate skips the step when the run starts from cleaned data
func (s *CleanStep) Validate(state *RunState) error {
	if err := s.BaseStep.Validate(state); err != nil {
		return err
	}
	if state.Request.FromCleaned {
		return fmt.Errorf("%w: input is already cleaned", ErrSkipStep)
	}
	return nil
}

// Execute cleans the raw tables and writes cleaned_<table>.csv files plus
// the cleaning report
func (s *CleanStep) Execute(ctx context.Context, state *RunState) error {
	raw, err := s.deps.rawTables(ctx, state)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting data cleaning step",
		slog.String("run_id", state.ID),
		slog.Int("tables", len(raw.Loaded())))

	cleaned, audit := cleaning.NewCleaner(s.logger).Clean(ctx, raw)
	if err := ctx.Err(); err != nil {
		return err
	}

	files, err := exporter.NewCSVWriter(s.deps.Paths, s.logger).WriteCleanedTables(cleaned)
	if err != nil {
		return fmt.Errorf("failed to save cleaned tables: %w", err)
	}
	state.AddOutputs(s.ID(), files...)

	generated := state.GeneratedAt()
	if err := writeReport(s.deps.Paths.CleaningReport, func(w io.Writer) error {
		return audit.WriteReport(w, generated)
	}); err != nil {
		return err
	}
	state.AddOutputs(s.ID(), s.deps.Paths.CleaningReport)

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("audit_entries", len(audit.Entries))
	}
	state.SetCleanedTables(cleaned)
	return nil
}

// ValidateStep runs the data quality checks
type ValidateStep struct {
	BaseStep
	deps   Deps
	logger *slog.Logger
}

// NewValidateStep creates the validate step
func NewValidateStep(d Deps) *ValidateStep {
	d = d.withDefaults()
	return &ValidateStep{
		BaseStep: NewBaseStep(StepIDValidate, StepNameValidate, StepIDClean),
		deps:     d,
		logger:   d.stepLogger(StepIDValidate),
	}
}

// Execute validates the cleaned tables, or the loaded tables when the clean
// step did not run, and writes the validation report. Failed checks only
// fail the step when Pipeline.FailOnInvalid is set.
func (s *ValidateStep) Execute(ctx context.Context, state *RunState) error {
	ts, ok := state.CleanedTables()
	if !ok {
		ts, ok = state.RawTables()
	}
	if !ok {
		var err error
		if ts, err = s.deps.cleanedTables(ctx, state); err != nil {
			return err
		}
	}

	result := validation.NewDataValidator(s.logger).Validate(ctx, ts)
	state.SetValidation(result)

	generated := state.GeneratedAt()
	if err := writeReport(s.deps.Paths.ValidationReport, func(w io.Writer) error {
		return result.WriteReport(w, generated)
	}); err != nil {
		return err
	}
	state.AddOutputs(s.ID(), s.deps.Paths.ValidationReport)

	failed := result.Failed()
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("checks", len(result.Checks))
		st.SetMetadata("failed_checks", len(failed))
	}
	if result.Passed {
		return nil
	}

	s.logger.WarnContext(ctx, "Data validation found issues",
		slog.String("run_id", state.ID),
		slog.Int("failed_checks", len(failed)))
	if s.deps.Config.Pipeline.FailOnInvalid {
		return NewValidationError(s.ID(), fmt.Sprintf("%d of %d checks failed", len(failed), len(result.Checks)))
	}
	return nil
}

// FeaturesStep builds the master datasets and the revenue forecast
type FeaturesStep struct {
	BaseStep
	deps   Deps
	logger *slog.Logger
}

// NewFeaturesStep creates the features step
func NewFeaturesStep(d Deps) *FeaturesStep {
	d = d.withDefaults()
	return &FeaturesStep{
		BaseStep: NewBaseStep(StepIDFeatures, StepNameFeatures, StepIDValidate),
		deps:     d,
		logger:   d.stepLogger(StepIDFeatures),
	}
}

// Execute builds every feature group, writes the master datasets and the
// inventory, dictionary and engineering reports
func (s *FeaturesStep) Execute(ctx context.Context, state *RunState) error {
	ts, err := s.deps.cleanedTables(ctx, state)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting feature engineering step",
		slog.String("run_id", state.ID))

	res, fc, err := s.deps.buildFeatures(ctx, ts, s.logger)
	if err != nil {
		return err
	}
	checkDerivedRows(ctx, s.logger, res)
	state.SetFeatures(res, fc)

	sets := exporter.MasterDatasets(res)
	files, err := exporter.NewCSVWriter(s.deps.Paths, s.logger).WriteDatasets(sets)
	if err != nil {
		return fmt.Errorf("failed to save master datasets: %w", err)
	}
	for _, ds := range sets {
		infrastructure.RecordRows(ctx, s.deps.Metrics, ds.Name, len(ds.Records))
	}
	state.AddOutputs(s.ID(), files...)

	generated := state.GeneratedAt()
	reports := []struct {
		path  string
		write func(io.Writer) error
	}{
		{s.deps.Paths.DatasetInventory, func(w io.Writer) error { return features.WriteInventory(w, files, generated) }},
		{s.deps.Paths.FeatureDictionary, func(w io.Writer) error { return res.Dictionary.WriteText(w, generated) }},
		{s.deps.Paths.FeatureReport, func(w io.Writer) error { return res.WriteReport(w, files, ts.Loaded(), generated) }},
	}
	for _, r := range reports {
		if err := writeReport(r.path, r.write); err != nil {
			return err
		}
		state.AddOutputs(s.ID(), r.path)
	}

	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("datasets", len(sets))
		st.SetMetadata("features", res.Dictionary.Len())
		if fc != nil {
			st.SetMetadata("forecast_status", fc.Status)
		}
	}
	return nil
}

// AnalyzeStep runs the domain analyzers and writes their reports
type AnalyzeStep struct {
	BaseStep
	deps   Deps
	logger *slog.Logger
}

// NewAnalyzeStep creates the analyze step
func NewAnalyzeStep(d Deps) *AnalyzeStep {
	d = d.withDefaults()
	return &AnalyzeStep{
		BaseStep: NewBaseStep(StepIDAnalyze, StepNameAnalyze, StepIDFeatures),
		deps:     d,
		logger:   d.stepLogger(StepIDAnalyze),
	}
}

// Execute runs the four analyzers. When the features step did not run in
// this process the master datasets are rebuilt in memory from the cleaned
// tables. The step fails only when every analyzer failed.
func (s *AnalyzeStep) Execute(ctx context.Context, state *RunState) error {
	ts, err := s.deps.cleanedTables(ctx, state)
	if err != nil {
		return err
	}

	feats, fc := state.Features(), state.Forecast()
	if feats == nil {
		s.logger.InfoContext(ctx, "Rebuilding master datasets in memory",
			slog.String("run_id", state.ID))
		if feats, fc, err = s.deps.buildFeatures(ctx, ts, s.logger); err != nil {
			return err
		}
		state.SetFeatures(feats, fc)
	}

	runner := analysis.NewRunner(s.logger, analysis.DefaultAnalyzers(s.deps.Config.Features)...)
	outcomes, err := runner.Run(ctx, analysis.Input{Tables: ts, Features: feats, Forecast: fc})
	if err != nil {
		return err
	}
	state.SetOutcomes(outcomes)

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Analyzer, o.Err))
		}
	}
	if st := state.GetStep(s.ID()); st != nil {
		st.SetMetadata("analyzers", len(outcomes))
		st.SetMetadata("analyzers_failed", len(errs))
	}
	if len(outcomes) > 0 && len(errs) == len(outcomes) {
		return fmt.Errorf("all %d analyzers failed: %w", len(outcomes), errors.Join(errs...))
	}

	if state.Request.SkipReports || s.deps.Config.Pipeline.SkipReports {
		s.logger.InfoContext(ctx, "Report generation disabled",
			slog.String("run_id", state.ID))
		return nil
	}

	written, err := exporter.NewReportWriter(s.deps.Paths, s.logger).WriteAll(ctx, outcomes, state.GeneratedAt())
	state.AddOutputs(s.ID(), written...)
	if err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	return nil
}

// load reads a raw or cleaned directory
func (d Deps) load(ctx context.Context, dir string, cleaned bool) (*dataset.LoadResult, error) {
	var loader *dataset.Loader
	if cleaned {
		loader = dataset.NewCleanedLoader(dir, d.Config.Pipeline.LoadWorkers, d.Logger)
	} else {
		loader = dataset.NewLoader(dir, d.Config.Pipeline.LoadWorkers, d.Logger)
	}
	return loader.Load(ctx)
}

// rawTables returns the loaded tables of this run, reading the raw
// directory when the load step did not run
func (d Deps) rawTables(ctx context.Context, state *RunState) (dataset.TableSet, error) {
	if ts, ok := state.RawTables(); ok {
		return ts, nil
	}
	res, err := d.load(ctx, d.Paths.RawDir, false)
	if err != nil {
		return dataset.TableSet{}, err
	}
	if len(res.Tables.Loaded()) == 0 {
		return dataset.TableSet{}, fmt.Errorf("no source tables found in %s", d.Paths.RawDir)
	}
	state.SetRawTables(res.Tables)
	return res.Tables, nil
}

// cleanedTables returns the cleaned tables of this run, reading the cleaned
// directory when the clean step did not run
func (d Deps) cleanedTables(ctx context.Context, state *RunState) (dataset.TableSet, error) {
	if ts, ok := state.CleanedTables(); ok {
		return ts, nil
	}
	res, err := d.load(ctx, d.Paths.CleanedDir, true)
	if err != nil {
		return dataset.TableSet{}, err
	}
	if len(res.Tables.Loaded()) == 0 {
		return dataset.TableSet{}, fmt.Errorf("no cleaned tables found in %s: run the clean step first", d.Paths.CleanedDir)
	}
	state.SetCleanedTables(res.Tables)
	return res.Tables, nil
}

// buildFeatures runs the feature engineer and the forecaster. Too little
// history for a forecast is logged, not returned.
func (d Deps) buildFeatures(ctx context.Context, ts dataset.TableSet, logger *slog.Logger) (*features.Result, *forecast.Result, error) {
	res, err := features.NewEngineer(d.Config.Features, logger).Build(ctx, ts)
	if err != nil {
		return nil, nil, err
	}

	fc, err := forecast.NewForecaster(d.Config.Forecast, logger).Forecast(ctx, res.MonthlyTrends)
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		logger.WarnContext(ctx, "Skipping revenue forecast",
			slog.Int("months", len(res.MonthlyTrends)),
			slog.String("reason", err.Error()))
	case err != nil:
		return nil, nil, err
	case fc.Status == forecast.StatusOK:
		res.SetForecast(fc.Points)
	}
	return res, fc, nil
}

// checkDerivedRows validates the typed rows before they are persisted.
// Violations are logged; the rows are still written.
func checkDerivedRows(ctx context.Context, logger *slog.Logger, res *features.Result) {
	checks := []struct {
		name string
		err  error
	}{
		{exporter.CustomerAnalytics, validation.ValidateRows(exporter.CustomerAnalytics, res.Customers)},
		{exporter.MarketExpansion, validation.ValidateRows(exporter.MarketExpansion, res.Locations)},
		{exporter.PaymentOperations, validation.ValidateRows(exporter.PaymentOperations, res.Payments)},
		{exporter.ProductPerformance, validation.ValidateRows(exporter.ProductPerformance, res.Products)},
	}
	for _, c := range checks {
		if c.err != nil {
			logger.WarnContext(ctx, "Derived rows failed validation",
				slog.String("dataset", c.name),
				slog.String("error", c.err.Error()))
		}
	}
}

// writeReport creates path and hands it to write
func writeReport(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
