package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, time.Hour, cfg.Server.CacheTTL)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "data/raw", cfg.Paths.RawDir)
				assert.Equal(t, 100, cfg.Forecast.Trees)
				assert.Equal(t, int64(42), cfg.Forecast.Seed)
				assert.Equal(t, 0.8, cfg.Forecast.TrainRatio)
				assert.Equal(t, 3, cfg.Forecast.Horizon)
				assert.Equal(t, 90, cfg.Features.ActiveDays)
				assert.Equal(t, 30.44, cfg.Features.DaysPerMonth)
				assert.NotEmpty(t, cfg.Paths.RootDir)
			},
		},
		{
			name: "env overrides defaults",
			env: map[string]string{
				"OLIST_LOGGING_LEVEL":  "debug",
				"OLIST_FORECAST_TREES": "25",
				"OLIST_SERVER_PORT":    "9090",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 25, cfg.Forecast.Trees)
				assert.Equal(t, 9090, cfg.Server.Port)
			},
		},
		{
			name: "yaml file fills values not set in env",
			env: map[string]string{
				"OLIST_FORECAST_TREES": "10",
			},
			yaml: "logging:\n  level: warn\nforecast:\n  trees: 300\n  horizon: 6\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 10, cfg.Forecast.Trees, "env must win over file")
				assert.Equal(t, 6, cfg.Forecast.Horizon)
			},
		},
		{
			name: "yaml keys from every section are applied",
			env: map[string]string{
				"OLIST_FEATURES_CUSTOMERS_PER_SELLER": "40",
			},
			yaml: `server:
  write_timeout: 45s
  rate_limit:
    rps: 5
logging:
  format: text
paths:
  cleaned_dir: out/cleaned
pipeline:
  fail_on_invalid: true
  max_retries: 2
features:
  active_days: 60
  customers_per_seller: 10
forecast:
  min_rows: 20
  train_ratio: 0.7
telemetry:
  enabled: false
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 45*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 5.0, cfg.Server.RateLimit.RPS)
				assert.Equal(t, 25, cfg.Server.RateLimit.Burst, "sibling keys keep their default")
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Equal(t, "out/cleaned", cfg.Paths.CleanedDir)
				assert.True(t, cfg.Pipeline.FailOnInvalid)
				assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
				assert.Equal(t, 60, cfg.Features.ActiveDays)
				assert.Equal(t, 180, cfg.Features.InactiveDays)
				assert.Equal(t, 40, cfg.Features.CustomersPerSeller, "env must win over file")
				assert.Equal(t, 20, cfg.Forecast.MinRows)
				assert.Equal(t, 0.7, cfg.Forecast.TrainRatio)
				assert.False(t, cfg.Telemetry.Enabled)
			},
		},
		{
			name: "env can turn off a default-true flag",
			env:  map[string]string{"OLIST_TELEMETRY_ENABLED": "false"},
			yaml: "telemetry:\n  enabled: true\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Telemetry.Enabled)
			},
		},
		{
			name:    "invalid log level fails validation",
			env:     map[string]string{"OLIST_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "train ratio out of range fails validation",
			env:     map[string]string{"OLIST_FORECAST_TRAIN_RATIO": "1.5"},
			wantErr: true,
		},
		{
			name:    "inactive days must exceed active days",
			env:     map[string]string{"OLIST_FEATURES_INACTIVE_DAYS": "30"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "logging: [oops",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			file := ""
			if tt.yaml != "" {
				file = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(file, []byte(tt.yaml), 0644))
			}

			cfg, err := LoadFrom(file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFrom_ExampleFileMatchesDefaults(t *testing.T) {
	t.Setenv("OLIST_PATHS_ROOT_DIR", t.TempDir())

	cfg, err := LoadFrom(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	want := Default()
	want.Paths.RootDir = cfg.Paths.RootDir
	want.Logging.Output = "both"
	want.Logging.FilePath = filepath.Join(cfg.Paths.RootDir, "logs", "pipeline.log")
	assert.Equal(t, want, cfg)
}

func TestLoadFrom_RootDirIsAbsolute(t *testing.T) {
	t.Setenv("OLIST_PATHS_ROOT_DIR", ".")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Paths.RootDir))
	assert.Equal(t, filepath.Join(cfg.Paths.RootDir, "logs", "pipeline.log"), cfg.Logging.FilePath)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15*time.Minute, cfg.Pipeline.StepTimeout)
	assert.Equal(t, 10, cfg.Forecast.MinRows)
	assert.Equal(t, 30, cfg.Features.CustomersPerSeller)
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "text", cfg.Logging.Format)

	cfg.Logging.Format = "logfmt"
	assert.Error(t, cfg.Validate())
}
