package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrack/internal/config"
	"papertrack/internal/shared/testutil"
)

func TestOTelInitialization(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(context.Background(), nil, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.MetricsHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		config      *OTelConfig
		wantErr     bool
		wantTracing bool
		wantMetrics bool
	}{
		{
			name:        "stdout traces and prometheus",
			config:      &OTelConfig{ServiceName: "t", TraceExporter: "stdout", MetricExporter: "prometheus", SampleRatio: 1, TraceWriter: io.Discard},
			wantTracing: true,
			wantMetrics: true,
		},
		{
			name:   "everything off",
			config: &OTelConfig{ServiceName: "t", TraceExporter: "none", MetricExporter: "none"},
		},
		{
			name:    "unknown trace exporter",
			config:  &OTelConfig{ServiceName: "t", TraceExporter: "jaeger", MetricExporter: "none"},
			wantErr: true,
		},
		{
			name:    "unknown metric exporter",
			config:  &OTelConfig{ServiceName: "t", TraceExporter: "none", MetricExporter: "statsd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			providers, err := InitializeOTel(context.Background(), tt.config, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = providers.Shutdown(context.Background()) }()

			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MetricsHandler != nil)
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)

			// instruments must be creatable against a no-op meter too
			_, err = CreateBusinessMetrics(providers.Meter)
			assert.NoError(t, err)
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry, "1.2.3")
	assert.Equal(t, "papertrack", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)

	cfg = OTelConfigFrom(config.TelemetryConfig{}, "dev")
	assert.Equal(t, ServiceName, cfg.ServiceName)
}

func TestStdoutTracesAreExported(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(context.Background(), &OTelConfig{
		ServiceName:    "t",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1,
		TraceWriter:    &buf,
	}, logger)
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "workbook.load")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "workbook.load")
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestBusinessMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := InitializeOTel(context.Background(), DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.CacheMiss(ctx)
	metrics.Loaded(ctx, 120*time.Millisecond, 42, nil)
	metrics.Loaded(ctx, time.Millisecond, 0, errors.New("boom"))
	metrics.CacheHit(ctx)
	metrics.RecordHTTPRequest(ctx, http.MethodGet, "/api/papers", http.StatusOK, 5*time.Millisecond)
	metrics.RecordSnapshotArchived(ctx)

	body := scrape(t, providers.MetricsHandler)
	for _, name := range []string{
		"workbook_loads_total",
		"workbook_load_duration_seconds",
		"workbook_cache_hits_total",
		"workbook_cache_misses_total",
		"workbook_papers",
		"http_requests_total",
		"snapshots_archived_total",
		"go_goroutines",
	} {
		assert.Contains(t, body, name)
	}
	assert.Contains(t, body, `result="error"`)
	assert.Contains(t, body, `route="/api/papers"`)
}

func TestPrometheusRegistriesAreIndependent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	// two initializations in one process must not collide on registration
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(context.Background(), DefaultOTelConfig(), logger)
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}
