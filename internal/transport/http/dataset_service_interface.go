package http

import (
	"context"

	"olistcli/internal/operations"
	"olistcli/internal/services"
)

// DatasetServiceInterface defines the read operations behind the dashboard
type DatasetServiceInterface interface {
	List(ctx context.Context) ([]services.DatasetInfo, error)
	Page(ctx context.Context, name string, limit, offset int) (*services.DatasetPage, error)
	Overview(ctx context.Context) (*services.Overview, error)
	LatestRun(ctx context.Context) (*operations.RunManifest, error)
}
