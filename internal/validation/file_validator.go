package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"olistcli/internal/dataset"
)

// FileValidator checks the directories and files the pipeline reads and
// writes
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// RawInventory lists which source tables are present in a raw directory
type RawInventory struct {
	Dir     string
	Found   []dataset.Table
	Missing []dataset.Table
}

// ValidateRawDirectory checks that dir exists and reports which of the
// nine source files it holds. Missing files are not an error; the loader
// skips those tables.
func (v *FileValidator) ValidateRawDirectory(dir string) (RawInventory, error) {
	inv := RawInventory{Dir: dir}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Raw data directory does not exist",
			slog.String("directory", dir))
		return inv, fmt.Errorf("raw data directory %s does not exist", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat raw data directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return inv, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Raw data path is not a directory",
			slog.String("path", dir))
		return inv, fmt.Errorf("%s is not a directory", dir)
	}

	for _, t := range dataset.AllTables {
		if err := v.ValidateCSVFile(filepath.Join(dir, dataset.SourceFiles[t])); err != nil {
			inv.Missing = append(inv.Missing, t)
			continue
		}
		inv.Found = append(inv.Found, t)
	}

	if len(inv.Missing) > 0 {
		names := make([]string, len(inv.Missing))
		for i, t := range inv.Missing {
			names[i] = string(t)
		}
		v.logger.Warn("Some source files are missing",
			slog.String("directory", dir),
			slog.String("missing", strings.Join(names, ",")))
	}
	v.logger.Info("Raw data directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", len(inv.Found)),
		slog.Int("files_expected", len(dataset.AllTables)))
	return inv, nil
}

// ValidateOutputDirectory ensures dir exists, creating it if needed, and
// is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	marker := filepath.Join(dir, ".write_test")
	file, err := os.Create(marker)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(marker)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateCSVFile checks that path is a readable, non-directory .csv file
func (v *FileValidator) ValidateCSVFile(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		return fmt.Errorf("file %s is not a CSV file (extension: %s)", path, ext)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
