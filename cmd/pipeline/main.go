package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"olistcli/internal/config"
	"olistcli/internal/infrastructure"
	"olistcli/internal/operations"
	"olistcli/pkg/contracts"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// options holds the parsed command line
type options struct {
	ConfigFile  string
	DataDir     string
	Step        string
	SkipReports bool
	FromCleaned bool
	Version     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.ConfigFile, "config", "", "path to the YAML config file (defaults to config.yaml or $OLIST_CONFIG_FILE)")
	fs.StringVar(&opts.DataDir, "data", "", "directory holding the raw Olist CSV files (overrides paths.raw_dir)")
	fs.StringVar(&opts.Step, "step", "", "run a single step: "+strings.Join(operations.StepIDs, ", "))
	fs.BoolVar(&opts.SkipReports, "skip-reports", false, "skip markdown, xlsx and PDF reports in the analyze step")
	fs.BoolVar(&opts.FromCleaned, "from-cleaned", false, "start from data/cleaned instead of the raw files")
	fs.BoolVar(&opts.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.Step != "" && !isStepID(opts.Step) {
		return nil, fmt.Errorf("unknown step %q (want one of %s)", opts.Step, strings.Join(operations.StepIDs, ", "))
	}
	return opts, nil
}

func isStepID(id string) bool {
	for _, s := range operations.StepIDs {
		if s == id {
			return true
		}
	}
	return false
}

// loadConfig reads .env, the config file and the command line overrides
func loadConfig(opts *options) (*config.Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigFile != "" {
		if _, statErr := os.Stat(opts.ConfigFile); statErr != nil {
			return nil, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.LoadFrom(opts.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.DataDir != "" {
		abs, err := filepath.Abs(opts.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.Paths.RawDir = abs
	}
	if opts.SkipReports {
		cfg.Pipeline.SkipReports = true
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if opts.Version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitFailed
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create required directories", slog.String("error", err.Error()))
		return exitFailed
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return exitFailed
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return exitFailed
	}

	registry, err := operations.NewDefaultRegistry(operations.Deps{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Error("Failed to build pipeline", slog.String("error", err.Error()))
		return exitFailed
	}
	manager := operations.NewManager(registry, operations.ConfigFrom(cfg, paths), logger, metrics)

	req := operations.Request{
		FromCleaned: opts.FromCleaned,
		SkipReports: cfg.Pipeline.SkipReports,
	}
	if opts.Step != "" {
		req.Steps = []string{opts.Step}
	}

	logger.Info("Starting Olist analytics pipeline",
		slog.String("version", contracts.Version),
		slog.String("raw_dir", paths.RawDir),
		slog.String("step", opts.Step),
		slog.Bool("from_cleaned", req.FromCleaned),
		slog.Bool("skip_reports", req.SkipReports))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := manager.Execute(ctx, req)
	printSummary(stdout, resp, paths)
	if err != nil {
		logger.Error("Pipeline failed", slog.String("error", err.Error()))
		return exitFailed
	}
	return exitOK
}

// printSummary writes one line per step plus the output locations
func printSummary(w io.Writer, resp *operations.Response, paths *config.Paths) {
	if resp == nil {
		return
	}

	fmt.Fprintf(w, "\nRun %s: %s in %s\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	for _, id := range operations.StepIDs {
		st, ok := resp.Steps[id]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-9s %-10s", id, st.Status)
		if st.Message != "" {
			line += " " + st.Message
		}
		fmt.Fprintln(w, line)
	}
	if resp.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
	}

	fmt.Fprintf(w, "Datasets: %s\n", paths.FeaturesDir)
	fmt.Fprintf(w, "Reports:  %s\n", paths.ReportsDir)
}
