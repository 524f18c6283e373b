// Package app wires the read-only analytics dashboard.
//
// NewApplication takes a loaded configuration and builds, in order:
//
//  1. OpenTelemetry providers and the shared pipeline metrics
//  2. The dataset and health services
//  3. The chi router with its middleware chain
//  4. The HTTP server
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /api/v1/datasets
//	GET /api/v1/datasets/{name}?limit=&offset=
//	GET /api/v1/overview
//	GET /api/v1/runs/latest
//
// Run blocks until SIGINT or SIGTERM and then shuts the server down within
// Server.ShutdownTimeout.
package app
