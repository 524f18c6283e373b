package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/config"
	"olistcli/internal/operations"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{}},
		{
			name: "single step",
			args: []string{"-step", "features", "-from-cleaned", "-skip-reports"},
			want: options{Step: "features", FromCleaned: true, SkipReports: true},
		},
		{
			name: "data and config",
			args: []string{"-data", "/srv/olist", "-config", "prod.yaml"},
			want: options{DataDir: "/srv/olist", ConfigFile: "prod.yaml"},
		},
		{name: "unknown step", args: []string{"-step", "train"}, wantErr: true},
		{name: "stray argument", args: []string{"run"}, wantErr: true},
		{name: "unknown flag", args: []string{"-fast"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("OLIST_PATHS_ROOT_DIR", root)

	dataDir := filepath.Join(root, "incoming")
	cfg, err := loadConfig(&options{DataDir: dataDir, SkipReports: true})
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.Paths.RawDir)
	assert.True(t, cfg.Pipeline.SkipReports)
	assert.True(t, filepath.IsAbs(cfg.Logging.FilePath))
	assert.Equal(t, dataDir, cfg.ResolvedPaths().RawDir)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(&options{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRun_UsageAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, exitUsage, run([]string{"-step", "bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown step")

	stdout.Reset()
	assert.Equal(t, exitOK, run([]string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Olist")
}

func TestRun_LoadFailsWithoutSourceFiles(t *testing.T) {
	root := t.TempDir()
	t.Setenv("OLIST_PATHS_ROOT_DIR", root)
	t.Setenv("OLIST_TELEMETRY_ENABLED", "false")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-step", "load"}, &stdout, &stderr)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout.String(), "load")
	assert.Contains(t, stdout.String(), string(operations.StepStatusFailed))
	assert.DirExists(t, filepath.Join(root, "reports"))
}

func TestPrintSummary(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	resp := &operations.Response{
		ID:       "run-42",
		Status:   operations.RunStatusFailed,
		Duration: 1500 * time.Millisecond,
		Steps: map[string]*operations.StepState{
			operations.StepIDLoad:  {ID: operations.StepIDLoad, Status: operations.StepStatusCompleted, Message: "9 tables"},
			operations.StepIDClean: {ID: operations.StepIDClean, Status: operations.StepStatusFailed},
		},
		Error: "clean: disk full",
	}

	var buf bytes.Buffer
	printSummary(&buf, resp, paths)

	out := buf.String()
	assert.Contains(t, out, "Run run-42: failed in 1.5s")
	assert.Contains(t, out, "9 tables")
	assert.Contains(t, out, "Error: clean: disk full")
	assert.NotContains(t, out, operations.StepIDAnalyze)
	assert.Contains(t, out, paths.ReportsDir)

	buf.Reset()
	printSummary(&buf, nil, paths)
	assert.Empty(t, buf.String())
}
