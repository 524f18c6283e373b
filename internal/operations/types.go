package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDLoad     = "load"
	StepIDClean    = "clean"
	StepIDValidate = "validate"
	StepIDFeatures = "features"
	StepIDAnalyze  = "analyze"
)

// Pipeline step names
const (
	StepNameLoad     = "Data Loading"
	StepNameClean    = "Data Cleaning"
	StepNameValidate = "Data Validation"
	StepNameFeatures = "Feature Engineering"
	StepNameAnalyze  = "Business Analysis"
)

// StepIDs lists the pipeline steps in execution order
var StepIDs = []string{StepIDLoad, StepIDClean, StepIDValidate, StepIDFeatures, StepIDAnalyze}

// Default timeouts
const (
	DefaultStepTimeout = 15 * time.Minute
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration: a single attempt
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  1,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Request describes one pipeline run
type Request struct {
	// ID is the run ID; a UUID is generated when empty
	ID string `json:"id"`

	// Steps restricts the run to these step IDs. Empty runs every
	// registered step.
	Steps []string `json:"steps,omitempty"`

	// FromCleaned loads the cleaned CSVs instead of the raw files and
	// skips the clean step
	FromCleaned bool `json:"from_cleaned"`

	// SkipReports disables the markdown, xlsx and PDF outputs of the
	// analyze step
	SkipReports bool `json:"skip_reports"`
}

// Response is the outcome of a pipeline run
type Response struct {
	ID       string                `json:"id"`
	Status   RunStatus             `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}
