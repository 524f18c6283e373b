package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/config"
	"olistcli/internal/exporter"
	"olistcli/internal/shared/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.RootDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.ResolvedPaths().EnsureDirectories())

	a, err := NewApplication(cfg, quietLogger(), Options{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.OTelProviders.Shutdown(context.Background()) })
	return a
}

func get(a *Application, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	_, err := NewApplication(nil, quietLogger(), Options{})
	assert.Error(t, err)
}

func TestRouter_Datasets(t *testing.T) {
	a := newTestApp(t, nil)
	testutil.WriteCSV(t, a.Paths.GetFeaturePath(exporter.MarketExpansion),
		[]string{"state", "orders"}, [][]string{{"SP", "40"}, {"RJ", "12"}, {"MG", "9"}})

	rec := get(a, "/api/v1/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var list map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, float64(len(exporter.DatasetNames)), list["count"])
	assert.Equal(t, float64(1), list["available"])

	rec = get(a, "/api/v1/datasets/market_expansion?limit=2&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data struct {
			Total int                 `json:"total"`
			Rows  []map[string]string `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Data.Total)
	require.Len(t, page.Data.Rows, 2)
	assert.Equal(t, "RJ", page.Data.Rows[0]["state"])
}

func TestRouter_Problems(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/v1/datasets/orders", http.StatusNotFound},
		{"/api/v1/datasets/customer_analytics", http.StatusNotFound},
		{"/api/v1/datasets/market_expansion?limit=0", http.StatusBadRequest},
		{"/api/v1/runs/latest", http.StatusNotFound},
		{"/does/not/exist", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(a, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, rec.Header().Get("X-Request-ID"), body["trace_id"])
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	a := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/overview", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_OverviewHealthAndMetrics(t *testing.T) {
	a := newTestApp(t, nil)

	rec := get(a, "/api/v1/overview")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available_datasets":0`)

	rec = get(a, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = get(a, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_RateLimit(t *testing.T) {
	a := newTestApp(t, func(c *config.Config) {
		c.Server.RateLimit.RPS = 0.001
		c.Server.RateLimit.Burst = 1
	})

	assert.Equal(t, http.StatusOK, get(a, "/api/v1/datasets").Code)
	rec := get(a, "/api/v1/datasets")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(a, "/healthz").Code, "health checks are not rate limited")
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))

	resp, err := http.Get("http://" + a.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, ctx.Err(), "a clean shutdown does not cancel the app context")
}
