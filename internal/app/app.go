package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"olistcli/internal/config"
	apierrors "olistcli/internal/errors"
	"olistcli/internal/infrastructure"
	customMiddleware "olistcli/internal/middleware"
	"olistcli/internal/services"
	handlers "olistcli/internal/transport/http"
	"olistcli/pkg/contracts"
)

// APITimeout bounds every /api request
const APITimeout = 30 * time.Second

// Application is the dashboard server container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PipelineMetrics
	ErrorHandler  *apierrors.ErrorHandler

	listener net.Listener
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Datasets *services.DatasetService
	Health   *services.HealthService
}

// Options adjust a dashboard built from a loaded configuration
type Options struct {
	// Addr overrides the listen address derived from Server.Port
	Addr string
	// IncludeStack adds stack traces to 5xx problems
	IncludeStack bool
}

// NewApplication wires the dashboard: telemetry, services, router and the
// HTTP server. Nothing listens until Start.
func NewApplication(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetFullVersionString()))

	paths := cfg.ResolvedPaths()
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, opts.IncludeStack),
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer(opts.Addr)

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	a.Services = &ServiceContainer{
		Datasets: services.NewDatasetService(a.Paths, a.Config.Server.CacheTTL, a.Metrics, a.Logger),
		Health:   services.NewHealthService(a.Paths, a.Logger),
	}
}

// setupRouter builds the middleware chain and mounts the routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → headers → rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{Logger: a.Logger}))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	a.setupAPIRoutes(r)

	a.Router = r
}

// setupAPIRoutes configures the read-only API
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(APITimeout, a.Logger))

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
		}

		datasetHandler := handlers.NewDatasetHandler(a.Services.Datasets, a.Logger, a.ErrorHandler)
		r.Mount("/datasets", datasetHandler.Routes())
		r.Get("/overview", datasetHandler.GetOverview)
		r.Get("/runs/latest", datasetHandler.GetLatestRun)
	})
}

// createServer creates the HTTP server
func (a *Application) createServer(addr string) {
	if addr == "" {
		addr = fmt.Sprintf(":%d", a.Config.Server.Port)
	}
	a.Server = &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
	}
}

// Start binds the listen address and serves in the background. A serve
// failure cancels the application context.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	a.Logger.InfoContext(ctx, "Dashboard listening",
		slog.String("address", ln.Addr().String()),
		slog.String("features_dir", a.Paths.FeaturesDir),
		slog.Duration("cache_ttl", a.Config.Server.CacheTTL),
		slog.Bool("rate_limit", a.Config.Server.RateLimit.Enabled))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until SIGINT/SIGTERM or a server failure
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}
