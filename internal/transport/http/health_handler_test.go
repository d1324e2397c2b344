package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/services"
	"papertrack/internal/shared/testutil"
)

type stubWorkbook struct{ path string }

func (s stubWorkbook) Path() string        { return s.path }
func (s stubWorkbook) CachedVersions() int { return 0 }

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dir := t.TempDir()

	ready := NewHealthHandler(services.NewHealthService("v1.0.0-test",
		stubWorkbook{path: filepath.Join(dir, "tracker.xlsx")}, nil, logger), logger)
	notReady := NewHealthHandler(services.NewHealthService("v1.0.0-test",
		stubWorkbook{path: dir}, nil, logger), logger)

	tests := []struct {
		name           string
		handler        *HealthHandler
		path           string
		expectedStatus int
		expectedField  string
		expectedValue  any
	}{
		{name: "health", handler: ready, path: "/", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: "ok"},
		{name: "ready", handler: ready, path: "/ready", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: "ready"},
		{name: "not ready", handler: notReady, path: "/ready", expectedStatus: http.StatusServiceUnavailable, expectedField: "status", expectedValue: "not_ready"},
		{name: "live", handler: ready, path: "/live", expectedStatus: http.StatusOK, expectedField: "status", expectedValue: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedValue, body[tt.expectedField])
			assert.Equal(t, "v1.0.0-test", body["version"])
		})
	}
}

func TestHealthHandler_Version(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewHealthHandler(services.NewHealthService("v2.0.0", nil, nil, logger), logger)

	r := chi.NewRouter()
	r.Get("/api/version", h.Version)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "v2.0.0", body["version"])
	assert.Contains(t, body, "go_version")
}

func TestMetricsHandler(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delegates", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# HELP up\n"))
		})
		rec := httptest.NewRecorder()
		NewMetricsHandler(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "# HELP up")
	})
}
