package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "OLIST"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Features  FeaturesConfig  `yaml:"features" envconfig:"FEATURES"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains the dashboard HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	CacheTTL        time.Duration   `yaml:"cache_ttl" envconfig:"CACHE_TTL" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative
// directories are resolved against RootDir, which in turn defaults to the
// executable directory.
type PathsConfig struct {
	RootDir     string `yaml:"root_dir" envconfig:"ROOT_DIR"`
	RawDir      string `yaml:"raw_dir" envconfig:"RAW_DIR"`
	CleanedDir  string `yaml:"cleaned_dir" envconfig:"CLEANED_DIR"`
	FeaturesDir string `yaml:"features_dir" envconfig:"FEATURES_DIR"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig controls step execution
type PipelineConfig struct {
	StepTimeout    time.Duration `yaml:"step_timeout" envconfig:"STEP_TIMEOUT" validate:"gt=0"`
	SkipReports    bool          `yaml:"skip_reports" envconfig:"SKIP_REPORTS"`
	LoadWorkers    int           `yaml:"load_workers" envconfig:"LOAD_WORKERS" validate:"min=1,max=32"`
	FailOnInvalid  bool          `yaml:"fail_on_invalid" envconfig:"FAIL_ON_INVALID"`
	MaxRetries     int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"min=0,max=5"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay" envconfig:"RETRY_BASE_DELAY"`
}

// FeaturesConfig holds the thresholds used by customer and geographic scoring
type FeaturesConfig struct {
	ActiveDays         int     `yaml:"active_days" envconfig:"ACTIVE_DAYS" validate:"gt=0"`
	InactiveDays       int     `yaml:"inactive_days" envconfig:"INACTIVE_DAYS" validate:"gtfield=ActiveDays"`
	DaysPerMonth       float64 `yaml:"days_per_month" envconfig:"DAYS_PER_MONTH" validate:"gt=0"`
	CustomersPerSeller int     `yaml:"customers_per_seller" envconfig:"CUSTOMERS_PER_SELLER" validate:"gt=0"`
}

// ForecastConfig holds the random forest forecaster settings
type ForecastConfig struct {
	Trees      int     `yaml:"trees" envconfig:"TREES" validate:"min=1,max=1000"`
	Seed       int64   `yaml:"seed" envconfig:"SEED"`
	TrainRatio float64 `yaml:"train_ratio" envconfig:"TRAIN_RATIO" validate:"gt=0,lt=1"`
	Horizon    int     `yaml:"horizon" envconfig:"HORIZON" validate:"min=1,max=12"`
	MinRows    int     `yaml:"min_rows" envconfig:"MIN_ROWS" validate:"min=2"`
	MaxDepth   int     `yaml:"max_depth" envconfig:"MAX_DEPTH" validate:"min=0"`
}

// TelemetryConfig controls OpenTelemetry exporters
type TelemetryConfig struct {
	Enabled       bool    `yaml:"enabled" envconfig:"ENABLED"`
	TraceStdout   bool    `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
	SamplingRatio float64 `yaml:"sampling_ratio" envconfig:"SAMPLING_RATIO" validate:"min=0,max=1"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom layers the configuration: Default(), then the given YAML file,
// then the OLIST_* environment variables that are actually set. An empty
// or missing path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := *Default()
	// an unset root means the executable directory
	cfg.Paths.RootDir = ""

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := loadFromFile(configFile, &cfg); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	// Fields carry no default tags, so envconfig leaves unset variables alone.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile decodes the YAML file over cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths fills RootDir with the executable directory when unset and
// anchors a relative log file to it
func (c *Config) resolvePaths() error {
	if c.Paths.RootDir != "" {
		abs, err := filepath.Abs(c.Paths.RootDir)
		if err != nil {
			return err
		}
		c.Paths.RootDir = abs
	} else {
		exeDir, err := executableDir()
		if err != nil {
			return err
		}
		c.Paths.RootDir = exeDir
	}

	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.RootDir, c.Logging.FilePath)
	}
	return nil
}

// Validate checks the struct tags of every section
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// ResolvedPaths returns the directory layout rooted at Paths.RootDir
func (c *Config) ResolvedPaths() *Paths {
	return NewPathsFromConfig(c.Paths)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		DefaultConfigFile,
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the default configuration. It is the only source of
// defaults: LoadFrom starts from it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CacheTTL:        time.Hour,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     50,
				Burst:   25,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/pipeline.log",
		},
		Paths: PathsConfig{
			RootDir:     ".",
			RawDir:      "data/raw",
			CleanedDir:  "data/cleaned",
			FeaturesDir: "data/feature_engineered",
			ReportsDir:  "reports",
			LogsDir:     "logs",
		},
		Pipeline: PipelineConfig{
			StepTimeout:    15 * time.Minute,
			LoadWorkers:    4,
			RetryBaseDelay: time.Second,
		},
		Features: FeaturesConfig{
			ActiveDays:         90,
			InactiveDays:       180,
			DaysPerMonth:       30.44,
			CustomersPerSeller: 30,
		},
		Forecast: ForecastConfig{
			Trees:      100,
			Seed:       42,
			TrainRatio: 0.8,
			Horizon:    3,
			MinRows:    10,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			SamplingRatio: 1.0,
		},
	}
}
