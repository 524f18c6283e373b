package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Loader errors
var (
	ErrFileNotFound = errors.New("file not found")
	ErrEmptyFile    = errors.New("file is empty")
)

// Encodings reported per table
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// LoadIssue describes a table that could not be loaded. The table is
// skipped and the run continues.
type LoadIssue struct {
	Table Table
	File  string
	Err   error
}

func (i LoadIssue) Error() string {
	return fmt.Sprintf("%s (%s): %v", i.Table, i.File, i.Err)
}

// LoadResult is the outcome of loading a directory
type LoadResult struct {
	Tables    TableSet
	Encodings map[Table]string
	Rejected  map[Table]int
	Issues    []LoadIssue
}

// Loader reads the Olist CSV files from a directory
type Loader struct {
	dir     string
	files   map[Table]string
	workers int
	logger  *slog.Logger
}

// NewLoader creates a loader for the raw file names in dir
func NewLoader(dir string, workers int, logger *slog.Logger) *Loader {
	return newLoader(dir, SourceFiles, workers, logger)
}

// NewCleanedLoader creates a loader for cleaned_<table>.csv files in dir
func NewCleanedLoader(dir string, workers int, logger *slog.Logger) *Loader {
	return newLoader(dir, CleanedFiles(), workers, logger)
}

func newLoader(dir string, files map[Table]string, workers int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &Loader{dir: dir, files: files, workers: workers, logger: logger}
}

type tableLoad struct {
	table    Table
	header   header
	rows     [][]string
	encoding string
	err      error
}

// Load reads every table concurrently. Missing, empty or unreadable files
// are reported as issues, never as an error; only context cancellation
// aborts the load.
func (l *Loader) Load(ctx context.Context) (*LoadResult, error) {
	l.logger.InfoContext(ctx, "Starting to load all datasets",
		slog.String("dir", l.dir),
		slog.Int("workers", l.workers))

	slots := make([]tableLoad, len(AllTables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, t := range AllTables {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = l.loadTable(gctx, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &LoadResult{
		Tables:    NewTableSet(),
		Encodings: make(map[Table]string),
		Rejected:  make(map[Table]int),
	}
	for _, s := range slots {
		file := l.files[s.table]
		if s.err != nil {
			result.Issues = append(result.Issues, LoadIssue{Table: s.table, File: file, Err: s.err})
			l.logger.WarnContext(ctx, "Skipping table",
				slog.String("table", string(s.table)),
				slog.String("file", file),
				slog.String("error", s.err.Error()))
			continue
		}
		rejected, err := result.Tables.appendRows(s.table, s.header, s.rows)
		if err != nil {
			result.Issues = append(result.Issues, LoadIssue{Table: s.table, File: file, Err: err})
			continue
		}
		result.Tables.MarkLoaded(s.table)
		result.Encodings[s.table] = s.encoding
		if rejected > 0 {
			result.Rejected[s.table] = rejected
			l.logger.WarnContext(ctx, "Rejected rows with unparseable keys",
				slog.String("table", string(s.table)),
				slog.Int("rejected", rejected))
		}
		l.logger.InfoContext(ctx, "Successfully loaded table",
			slog.String("table", string(s.table)),
			slog.String("encoding", s.encoding),
			slog.Int("rows", result.Tables.Len(s.table)),
			slog.Int("columns", len(s.header)))
	}

	l.logger.InfoContext(ctx, "Finished loading datasets",
		slog.Int("loaded", len(result.Tables.Loaded())),
		slog.Int("expected", len(AllTables)),
		slog.Int("skipped", len(result.Issues)))

	return result, nil
}

func (l *Loader) loadTable(ctx context.Context, t Table) tableLoad {
	path := filepath.Join(l.dir, l.files[t])
	out := tableLoad{table: t}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			out.err = ErrFileNotFound
		} else {
			out.err = err
		}
		return out
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	var cols []string
	if utf8.Valid(data) {
		cols, out.rows, err = readCSV(bytes.NewReader(data))
		out.encoding = EncodingUTF8
	} else {
		err = errors.New("invalid utf-8")
	}

	if err != nil && !errors.Is(err, ErrEmptyFile) {
		l.logger.WarnContext(ctx, "UTF-8 decoding failed, trying latin-1",
			slog.String("file", path),
			slog.String("error", err.Error()))
		decoded := transform.NewReader(bytes.NewReader(data), charmap.ISO8859_1.NewDecoder())
		cols, out.rows, err = readCSV(decoded)
		out.encoding = EncodingLatin1
		if err != nil && !errors.Is(err, ErrEmptyFile) {
			err = fmt.Errorf("failed with alternative encoding: %w", err)
		}
	}
	if err != nil {
		out.err = err
		return out
	}

	out.header = newHeader(cols)
	return out
}

// ReadFile reads a UTF-8 CSV file written by the pipeline. A file with a
// header and no rows yields ErrEmptyFile.
func ReadFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return readCSV(f)
}

// readCSV returns the header row and the data rows. A file with no data
// rows yields ErrEmptyFile.
func readCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cols, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptyFile
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return cols, rows, nil
}
