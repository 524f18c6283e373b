package app

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"olistcli/internal/config"
	"olistcli/internal/exporter"
	"olistcli/internal/operations"
	"olistcli/internal/services"
	"olistcli/internal/shared/testutil"
)

// PipelineDashboardSuite runs the full pipeline once over the sample tables
// and then reads its outputs back through the dashboard router
type PipelineDashboardSuite struct {
	suite.Suite

	cfg   *config.Config
	app   *Application
	runID string
}

func (s *PipelineDashboardSuite) SetupSuite() {
	s.cfg = config.Default()
	s.cfg.Paths.RootDir = s.T().TempDir()
	paths := s.cfg.ResolvedPaths()
	s.Require().NoError(paths.EnsureDirectories())
	testutil.WriteRawCSV(s.T(), paths.RawDir, testutil.SampleTables())

	registry, err := operations.NewDefaultRegistry(operations.Deps{
		Config: s.cfg,
		Paths:  paths,
		Logger: quietLogger(),
	})
	s.Require().NoError(err)

	manager := operations.NewManager(registry, operations.ConfigFrom(s.cfg, paths), quietLogger(), nil)
	resp, err := manager.Execute(context.Background(), operations.Request{})
	s.Require().NoError(err)
	s.Require().Equal(operations.RunStatusCompleted, resp.Status)
	s.runID = resp.ID

	s.app, err = NewApplication(s.cfg, quietLogger(), Options{Addr: "127.0.0.1:0"})
	s.Require().NoError(err)
}

func (s *PipelineDashboardSuite) TearDownSuite() {
	if s.app != nil {
		_ = s.app.OTelProviders.Shutdown(context.Background())
	}
}

func (s *PipelineDashboardSuite) getJSON(target string, out any) {
	rec := get(s.app, target)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
}

func (s *PipelineDashboardSuite) TestLatestRunMatchesPipeline() {
	var body struct {
		Data operations.RunManifest `json:"data"`
	}
	s.getJSON("/api/v1/runs/latest", &body)

	s.Equal(s.runID, body.Data.RunID)
	s.Equal(operations.RunStatusCompleted, body.Data.Status)
	s.Len(body.Data.Steps, len(operations.StepIDs))
}

func (s *PipelineDashboardSuite) TestOverviewListsMastersAndReports() {
	var body struct {
		Data services.Overview `json:"data"`
	}
	s.getJSON("/api/v1/overview", &body)

	s.Require().NotNil(body.Data.LastRun)
	s.Equal(s.runID, body.Data.LastRun.RunID)
	s.Positive(body.Data.AvailableDatasets)
	s.Positive(body.Data.TotalRows)

	kinds := map[string]bool{}
	for _, r := range body.Data.Reports {
		kinds[r.Kind] = true
	}
	s.True(kinds["pdf"], "executive summary is listed")
	s.True(kinds["md"], "analyzer reports are listed")
}

func (s *PipelineDashboardSuite) TestCustomerAnalyticsPage() {
	var body struct {
		Data services.DatasetPage `json:"data"`
	}
	s.getJSON("/api/v1/datasets/customer_analytics?limit=2", &body)

	s.Equal(exporter.CustomerAnalytics, body.Data.Name)
	s.Positive(body.Data.Total)
	s.LessOrEqual(len(body.Data.Rows), 2)
	s.Contains(body.Data.Columns, "customer_unique_id")
	for _, row := range body.Data.Rows {
		s.NotEmpty(row["customer_unique_id"])
	}
}

func (s *PipelineDashboardSuite) TestDatasetListMatchesFilesOnDisk() {
	var body struct {
		Data []services.DatasetInfo `json:"data"`
	}
	s.getJSON("/api/v1/datasets", &body)

	s.Require().Len(body.Data, len(exporter.DatasetNames))
	for _, d := range body.Data {
		_, err := os.Stat(s.app.Paths.GetFeaturePath(d.Name))
		s.Equal(err == nil, d.Available, d.Name)
	}
}

func TestPipelineDashboardSuite(t *testing.T) {
	suite.Run(t, new(PipelineDashboardSuite))
}
