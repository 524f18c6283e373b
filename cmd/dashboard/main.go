package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"olistcli/internal/app"
	"olistcli/internal/config"
	"olistcli/internal/infrastructure"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML config file (defaults to config.yaml or $OLIST_CONFIG_FILE)")
	addr := flag.String("addr", "", "listen address, e.g. :8080 (defaults to server.port)")
	debug := flag.Bool("debug", false, "include stack traces in 5xx problem responses")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, relying on environment")
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger, app.Options{Addr: *addr, IncludeStack: *debug})
	if err != nil {
		logger.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
