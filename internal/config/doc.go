// Package config provides centralized configuration management for the
// analytics pipeline and dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. A YAML configuration file
//  3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern OLIST_* for namespacing:
//
//	OLIST_LOGGING_LEVEL=debug
//	OLIST_PATHS_ROOT_DIR=/srv/olist
//	OLIST_FORECAST_TREES=200
//	OLIST_SERVER_PORT=8080
//
// The YAML file is taken from OLIST_CONFIG_FILE or, when unset, from
// config.yaml or configs/config.yaml in the working directory.
//
// # Paths
//
// Paths is the single source of truth for the directory layout. Every
// component receives a *Paths rather than building file names itself:
//
//	paths := cfg.ResolvedPaths()
//	file := paths.GetCleanedPath("orders") // data/cleaned/cleaned_orders.csv
//
// # Validation
//
// Struct tags are checked with go-playground/validator after loading, so an
// out-of-range value (for example OLIST_FORECAST_TRAIN_RATIO=1.5) fails fast.
package config
