package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
)

// CSVWriter writes the cleaned tables and the master datasets
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer. A nil logger uses slog.Default().
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteCleanedTables writes every loaded table to cleaned_<table>.csv,
// including the columns derived during cleaning
func (w *CSVWriter) WriteCleanedTables(ts dataset.TableSet) ([]string, error) {
	var written []string
	for _, t := range ts.Loaded() {
		path := w.paths.GetCleanedPath(string(t))
		if err := writeTable(path, dataset.Header(t, true), ts.Records(t)); err != nil {
			return written, fmt.Errorf("table %s: %w", t, err)
		}
		w.logger.Info("Saved cleaned table",
			slog.String("table", string(t)),
			slog.Int("rows", ts.Len(t)),
			slog.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

// WriteDatasets writes each master dataset to <name>.csv in the features
// directory
func (w *CSVWriter) WriteDatasets(sets []Dataset) ([]string, error) {
	written := make([]string, 0, len(sets))
	for _, d := range sets {
		path := w.paths.GetFeaturePath(d.Name)
		if err := writeTable(path, d.Header, d.Records); err != nil {
			return written, fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		w.logger.Info("Saved master dataset",
			slog.String("dataset", d.Name),
			slog.Int("rows", len(d.Records)),
			slog.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

// writeTable writes header and records next to path and renames the result
// into place, so a reader sees either the old file or the complete new one.
func writeTable(path string, header []string, records [][]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
