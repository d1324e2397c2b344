package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"papertrack/internal/config"
	apierrors "papertrack/internal/errors"
	"papertrack/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Workbook.Path = testutil.SampleWorkbook(t, dir)
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	a, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	return a
}

func serve(a *Application, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNew_Routes(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, target: "/api/health", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "ready", method: http.MethodGet, target: "/api/health/ready", wantStatus: http.StatusOK, wantBody: `"status":"ready"`},
		{name: "live", method: http.MethodGet, target: "/api/health/live", wantStatus: http.StatusOK, wantBody: `"status":"alive"`},
		{name: "version", method: http.MethodGet, target: "/api/version", wantStatus: http.StatusOK, wantBody: `"version"`},
		{name: "status", method: http.MethodGet, target: "/api/status", wantStatus: http.StatusOK, wantBody: `"paper_count":4`},
		{name: "papers", method: http.MethodGet, target: "/api/papers?source=Team+Work", wantStatus: http.StatusOK, wantBody: `"count":2`},
		{name: "summary", method: http.MethodGet, target: "/api/summary", wantStatus: http.StatusOK, wantBody: `"top_authors"`},
		{name: "export", method: http.MethodGet, target: "/api/export/papers.csv", wantStatus: http.StatusOK, wantBody: "Title"},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", wantStatus: http.StatusNotFound, wantBody: apierrors.TypeNotFound},
		{name: "wrong method", method: http.MethodDelete, target: "/api/papers", wantStatus: http.StatusMethodNotAllowed},
		{name: "archive disabled", method: http.MethodPost, target: "/api/snapshots", wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestNew_MetricsEndpoint(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	require.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/papers").Code)

	rec := serve(a, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/papers"`)
	assert.Contains(t, body, "workbook_loads_total")
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricExporter = "none"
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/metrics").Code)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/summary").Code)
}

func TestNew_Archive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Path = filepath.Join(t.TempDir(), "archive", "snapshots.db")
	a := newTestApp(t, cfg)
	require.NotNil(t, a.Archive)

	rec := serve(a, http.MethodPost, "/api/snapshots")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(a, http.MethodPost, "/api/snapshots")
	assert.Equal(t, http.StatusOK, rec.Code, "same snapshot archived twice")

	rec = serve(a, http.MethodGet, "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	ready := serve(a, http.MethodGet, "/api/health/ready")
	assert.Contains(t, ready.Body.String(), `"archive"`)

	metrics := serve(a, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, metrics, "snapshots_archived_total")
}

func TestNew_MissingWorkbook(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workbook.Path = filepath.Join(t.TempDir(), "absent.xlsx")
	a := newTestApp(t, cfg)

	rec := serve(a, http.MethodGet, "/api/papers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source_missing":true`)
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health/ready").Code)
}

func TestNew_Errors(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := New(context.Background(), nil, logger)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Workbook.SchemaFile = filepath.Join(t.TempDir(), "missing-schema.yaml")
	_, err = New(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize services")

	cfg = testConfig(t)
	cfg.Workbook.Path = filepath.Join(t.TempDir(), "tracker.csv")
	_, err = New(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrTypeValidation, apierrors.TypeOf(err))
}

func TestOpenReport(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t)
	cfg.Archive.Path = filepath.Join(t.TempDir(), "snapshots.db")

	report, err := OpenReport(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = report.Close() })

	papers, err := report.Papers(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, papers, 4)

	result, err := report.ArchiveSnapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestNew_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(a, http.MethodGet, "/api/health").Code)
}

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger, handler := testutil.NewTestLogger(t)
	a, err := New(context.Background(), testConfig(t), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel))
	assert.True(t, handler.ContainsMessage("workbook loaded"))
	assert.True(t, handler.ContainsAttr("papers", int64(4)))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + a.Addr() + "/api/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"status":"ok"`))

	require.NoError(t, a.Stop(context.Background()))
	assert.True(t, handler.ContainsMessage("application shutdown complete"))
}

func TestRun_StopsOnCancel(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	a, err := New(context.Background(), testConfig(t), logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return handler.ContainsMessage("application started") }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
