package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"olistcli/internal/config"
	"olistcli/pkg/contracts"
)

// Health states
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// HealthService reports whether the dashboard can serve data
type HealthService struct {
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   contracts.VersionInfo  `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
	Runtime   RuntimeStats           `json:"runtime"`
}

// CheckResult is the outcome of one health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// RuntimeStats describes the serving process
type RuntimeStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	GoVersion  string `json:"go_version"`
}

// NewHealthService creates a new health service
func NewHealthService(paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck checks the output directories the dashboard reads. Missing
// directories degrade the status; the process itself is still alive.
func (h *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	checks := map[string]CheckResult{
		"features_dir": checkDir(h.paths.FeaturesDir),
		"reports_dir":  checkDir(h.paths.ReportsDir),
	}

	status := HealthHealthy
	for name, c := range checks {
		if c.Status != HealthHealthy {
			status = HealthDegraded
			h.logger.DebugContext(ctx, "Health check degraded",
				slog.String("check", name),
				slog.String("message", c.Message))
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   contracts.GetVersionInfo(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
		Runtime: RuntimeStats{
			Goroutines: runtime.NumGoroutine(),
			HeapAlloc:  mem.HeapAlloc,
			GoVersion:  runtime.Version(),
		},
	}
}

func checkDir(path string) CheckResult {
	st, err := os.Stat(path)
	switch {
	case err != nil:
		return CheckResult{Status: HealthDegraded, Message: err.Error()}
	case !st.IsDir():
		return CheckResult{Status: HealthDegraded, Message: path + " is not a directory"}
	default:
		return CheckResult{Status: HealthHealthy}
	}
}
