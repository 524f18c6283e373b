package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"olistcli/internal/config"
	"olistcli/internal/dataset"
	apierrors "olistcli/internal/errors"
	"olistcli/internal/exporter"
	"olistcli/internal/infrastructure"
	"olistcli/internal/operations"
)

// Paging limits for dataset rows
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Lookup failures, wrapped in an AppError of type NOT_FOUND
var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrDatasetMissing = errors.New("dataset has not been generated")
	ErrNoManifest     = errors.New("no pipeline run recorded")
)

// reportExtensions are the report files listed by the overview
var reportExtensions = []string{".md", ".txt", ".xlsx", ".pdf", ".json"}

// DatasetInfo describes one master dataset on disk
type DatasetInfo struct {
	Name       string     `json:"name"`
	File       string     `json:"file"`
	Available  bool       `json:"available"`
	Rows       int        `json:"rows"`
	Columns    []string   `json:"columns,omitempty"`
	SizeBytes  int64      `json:"size_bytes"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// DatasetPage is a window of dataset rows keyed by column name
type DatasetPage struct {
	Name    string              `json:"name"`
	Columns []string            `json:"columns"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	Rows    []map[string]string `json:"rows"`
}

// ReportFile is one file under the reports directory
type ReportFile struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Overview summarizes the latest run and its outputs
type Overview struct {
	GeneratedAt       time.Time               `json:"generated_at"`
	LastRun           *operations.RunManifest `json:"last_run,omitempty"`
	AvailableDatasets int                     `json:"available_datasets"`
	TotalRows         int                     `json:"total_rows"`
	Datasets          []DatasetInfo           `json:"datasets"`
	Reports           []ReportFile            `json:"reports"`
}

// DatasetService serves the master datasets written by the features step.
// Parsed CSVs are cached per dataset for the configured TTL.
type DatasetService struct {
	paths   *config.Paths
	cache   *datasetCache
	group   singleflight.Group
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewDatasetService creates a dataset service. metrics may be nil.
func NewDatasetService(paths *config.Paths, ttl time.Duration, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DatasetService initialized",
		slog.String("features_dir", paths.FeaturesDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.Duration("cache_ttl", ttl))

	return &DatasetService{
		paths:   paths,
		cache:   newDatasetCache(ttl),
		metrics: metrics,
		logger:  logger.With(slog.String("service", "datasets")),
	}
}

// List describes every master dataset in display order. Datasets that have
// not been generated are listed as unavailable.
func (s *DatasetService) List(ctx context.Context) ([]DatasetInfo, error) {
	out := make([]DatasetInfo, 0, len(exporter.DatasetNames))
	for _, name := range exporter.DatasetNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.describe(ctx, name))
	}
	return out, nil
}

// Get describes one master dataset
func (s *DatasetService) Get(ctx context.Context, name string) (*DatasetInfo, error) {
	if !slices.Contains(exporter.DatasetNames, name) {
		return nil, unknownDataset(name)
	}
	info := s.describe(ctx, name)
	return &info, nil
}

// Page returns up to limit rows of a dataset starting at offset. An offset
// past the end yields an empty page.
func (s *DatasetService) Page(ctx context.Context, name string, limit, offset int) (*DatasetPage, error) {
	if !slices.Contains(exporter.DatasetNames, name) {
		return nil, unknownDataset(name)
	}
	if limit <= 0 || limit > MaxPageLimit {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	if offset < 0 {
		return nil, apierrors.NewAppValidationError("offset must not be negative")
	}

	t, err := s.table(ctx, name)
	if err != nil {
		return nil, err
	}

	start := min(offset, len(t.Rows))
	end := min(start+limit, len(t.Rows))

	rows := make([]map[string]string, 0, end-start)
	for _, rec := range t.Rows[start:end] {
		row := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return &DatasetPage{
		Name:    name,
		Columns: t.Columns,
		Total:   len(t.Rows),
		Limit:   limit,
		Offset:  offset,
		Rows:    rows,
	}, nil
}

// LatestRun returns the manifest of the last pipeline run
func (s *DatasetService) LatestRun(ctx context.Context) (*operations.RunManifest, error) {
	m, err := operations.ReadManifest(s.paths.GetReportPath(operations.ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apierrors.NewAppError(apierrors.ErrTypeNotFound, "no pipeline run has been recorded", ErrNoManifest)
		}
		s.logger.WarnContext(ctx, "Failed to read run manifest", slog.String("error", err.Error()))
		return nil, apierrors.NewParsingError("run manifest is unreadable", err)
	}
	return m, nil
}

// Overview combines the latest run manifest, dataset availability and the
// report files. A missing manifest is not an error.
func (s *DatasetService) Overview(ctx context.Context) (*Overview, error) {
	datasets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		GeneratedAt: time.Now().UTC(),
		Datasets:    datasets,
		Reports:     s.reports(ctx),
	}
	for _, d := range datasets {
		if d.Available {
			ov.AvailableDatasets++
			ov.TotalRows += d.Rows
		}
	}

	run, err := s.LatestRun(ctx)
	switch {
	case err == nil:
		ov.LastRun = run
	case errors.Is(err, ErrNoManifest):
	default:
		s.logger.WarnContext(ctx, "Overview without run manifest", slog.String("error", err.Error()))
	}

	return ov, nil
}

// describe stats and, when present, parses a dataset
func (s *DatasetService) describe(ctx context.Context, name string) DatasetInfo {
	path := s.paths.GetFeaturePath(name)
	info := DatasetInfo{Name: name, File: filepath.Base(path)}

	t, err := s.table(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrDatasetMissing) {
			info.Available = true
			info.Error = err.Error()
		}
		return info
	}

	modified := t.ModTime
	info.Available = true
	info.Rows = len(t.Rows)
	info.Columns = t.Columns
	info.SizeBytes = t.SizeBytes
	info.ModifiedAt = &modified
	return info
}

// table returns a parsed dataset from the cache, reading it on a miss.
// Concurrent misses for one dataset share a single read.
func (s *DatasetService) table(ctx context.Context, name string) (*datasetTable, error) {
	attrs := metric.WithAttributes(attribute.String("dataset", name))

	if t, ok := s.cache.get(name); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Add(ctx, 1, attrs)
		}
		return t, nil
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.Add(ctx, 1, attrs)
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		t, err := s.read(name)
		if err != nil {
			return nil, err
		}
		s.cache.put(name, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	t := v.(*datasetTable)
	s.logger.DebugContext(ctx, "Dataset loaded",
		slog.String("dataset", name),
		slog.Int("rows", len(t.Rows)))
	return t, nil
}

func (s *DatasetService) read(name string) (*datasetTable, error) {
	path := s.paths.GetFeaturePath(name)

	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apierrors.NewAppError(apierrors.ErrTypeNotFound,
				fmt.Sprintf("dataset %s has not been generated; run the features step", name), ErrDatasetMissing).
				WithContext("dataset", name)
		}
		return nil, apierrors.NewStorageError("failed to stat dataset", err)
	}

	cols, rows, err := dataset.ReadFile(path)
	if err != nil && !errors.Is(err, dataset.ErrEmptyFile) {
		return nil, apierrors.NewDatasetError(name, err)
	}

	return &datasetTable{
		Columns:   cols,
		Rows:      rows,
		SizeBytes: st.Size(),
		ModTime:   st.ModTime(),
	}, nil
}

// reports lists the top-level report files, newest first
func (s *DatasetService) reports(ctx context.Context) []ReportFile {
	entries, err := os.ReadDir(s.paths.ReportsDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "Failed to list reports", slog.String("error", err.Error()))
		}
		return []ReportFile{}
	}

	out := []ReportFile{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !slices.Contains(reportExtensions, ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, ReportFile{
			Name:       e.Name(),
			Kind:       strings.TrimPrefix(ext, "."),
			SizeBytes:  fi.Size(),
			ModifiedAt: fi.ModTime(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func unknownDataset(name string) error {
	return apierrors.NewAppError(apierrors.ErrTypeNotFound, fmt.Sprintf("dataset %s does not exist", name), ErrUnknownDataset).
		WithContext("dataset", name).
		WithContext("available", exporter.DatasetNames)
}
