package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "papertrack/internal/errors"
	"papertrack/internal/infrastructure"
	"papertrack/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenReqID, seenTraceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenReqID = GetRequestID(r.Context())
				seenTraceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seenReqID)
			assert.Equal(t, seenReqID, seenTraceID)
			assert.Equal(t, seenReqID, rec.Header().Get(RequestIDHeader))
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seenReqID)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	testutil.AssertLogContains(t, handler, slog.LevelError, "request completed")
	assert.True(t, handler.ContainsAttr("status", int64(500)))
	assert.True(t, handler.ContainsAttr("path", "/api/summary"))
}

func TestRecoverer(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	h := RequestID(Recoverer(errorHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-panic")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeInternal, body["type"])
	assert.Equal(t, "req-panic", body["trace_id"])
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rl := NewRateLimiter(0.001, 2, logger, apierrors.NewErrorHandler(logger, false))
	h := rl.Handler(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			assert.Equal(t, apierrors.TypeRateLimit, decodeProblem(t, rec)["type"])
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.True(t, handler.ContainsMessage("rate limit exceeded"))
}

func TestTimeout(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	var deadline bool
	h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
		<-r.Context().Done()
		assert.ErrorIs(t, r.Context().Err(), context.DeadlineExceeded)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, deadline)
	assert.True(t, handler.ContainsMessage("request timeout"))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "allowed origin",
			origins:    []string{"http://localhost:8080"},
			origin:     "http://localhost:8080",
			method:     http.MethodGet,
			wantOrigin: "http://localhost:8080",
			wantStatus: http.StatusOK,
		},
		{
			name:       "disallowed origin",
			origins:    []string{"http://localhost:8080"},
			origin:     "http://evil.example",
			method:     http.MethodGet,
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard preflight",
			origins:    []string{"*"},
			origin:     "http://any.example",
			method:     http.MethodOptions,
			wantOrigin: "http://any.example",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(CORSConfig{AllowedOrigins: tt.origins})(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(tt.method, "/api/papers", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	h := DefaultSecureHeaders().Handler(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "no HSTS over plain HTTP")
}

func TestAuditLog(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := AuditLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/snapshots", nil))

	assert.True(t, handler.ContainsMessage("audit log"))
	assert.True(t, handler.ContainsAttr("status", int64(http.StatusCreated)))
}

func TestOTelMiddleware_RecordsRoutePattern(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(context.Background(), infrastructure.DefaultOTelConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	m, err := NewOTelMiddleware(providers, metrics)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/archive/{id}", okHandler)

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/archive/"+id, nil))
	}

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `route="/api/archive/{id}"`)
	assert.NotContains(t, body, `route="/api/archive/a"`)
	assert.True(t, strings.Contains(body, "http_requests_total"))
}

func TestNewOTelMiddleware_RequiresMetrics(t *testing.T) {
	_, err := NewOTelMiddleware(&infrastructure.OTelProviders{}, nil)
	assert.Error(t, err)
}
