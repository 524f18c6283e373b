package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the pipeline
type Paths struct {
	RootDir     string
	RawDir      string
	CleanedDir  string
	FeaturesDir string
	ReportsDir  string
	LogsDir     string

	// Well-known report files
	CleaningReport      string
	ValidationReport    string
	FeatureReport       string
	FeatureDictionary   string
	DatasetInventory    string
	ExecutiveSummaryPDF string
}

// GetPaths returns the default layout relative to the executable location
func GetPaths() (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(exeDir), nil
}

// NewPaths returns the default directory layout under root
//
//	root/
//	  ├── data/
//	  │   ├── raw/                 (input CSV files)
//	  │   ├── cleaned/             (cleaned_<table>.csv)
//	  │   └── feature_engineered/  (master datasets)
//	  ├── reports/                 (txt, md, xlsx and pdf reports)
//	  └── logs/
func NewPaths(root string) *Paths {
	return NewPathsFromConfig(PathsConfig{
		RootDir:     root,
		RawDir:      filepath.Join("data", "raw"),
		CleanedDir:  filepath.Join("data", "cleaned"),
		FeaturesDir: filepath.Join("data", "feature_engineered"),
		ReportsDir:  "reports",
		LogsDir:     "logs",
	})
}

// NewPathsFromConfig resolves every configured directory against RootDir
func NewPathsFromConfig(pc PathsConfig) *Paths {
	root := pc.RootDir
	if root == "" {
		root = "."
	}
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}

	reports := resolve(pc.ReportsDir)
	features := resolve(pc.FeaturesDir)

	return &Paths{
		RootDir:     root,
		RawDir:      resolve(pc.RawDir),
		CleanedDir:  resolve(pc.CleanedDir),
		FeaturesDir: features,
		ReportsDir:  reports,
		LogsDir:     resolve(pc.LogsDir),

		CleaningReport:      filepath.Join(reports, "data_cleaning_report.txt"),
		ValidationReport:    filepath.Join(reports, "data_validation_report.txt"),
		FeatureReport:       filepath.Join(reports, "feature_engineering_report.txt"),
		FeatureDictionary:   filepath.Join(reports, "feature_dictionary.txt"),
		DatasetInventory:    filepath.Join(features, "dataset_inventory.txt"),
		ExecutiveSummaryPDF: filepath.Join(reports, "executive_summary.pdf"),
	}
}

// executableDir returns the directory of the running binary with symlinks resolved
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all output directories if they don't exist.
// The raw directory is input only and is never created.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.CleanedDir,
		p.FeaturesDir,
		p.ReportsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetRawPath returns the path of a raw input file
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetCleanedPath returns the path of a cleaned table, e.g. cleaned_orders.csv
func (p *Paths) GetCleanedPath(table string) string {
	return filepath.Join(p.CleanedDir, fmt.Sprintf("cleaned_%s.csv", table))
}

// GetFeaturePath returns the path of a master dataset, e.g. customer_analytics.csv
func (p *Paths) GetFeaturePath(dataset string) string {
	return filepath.Join(p.FeaturesDir, dataset+".csv")
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("root", p.RootDir),
			slog.String("raw", p.RawDir),
			slog.String("cleaned", p.CleanedDir),
			slog.String("features", p.FeaturesDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("report_files",
			slog.String("cleaning", p.CleaningReport),
			slog.String("validation", p.ValidationReport),
			slog.String("features", p.FeatureReport),
			slog.String("dictionary", p.FeatureDictionary),
		))
}
