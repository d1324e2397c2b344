package infrastructure

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds all application-specific instruments. It also
// satisfies the workbook loader's observer interface.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	WorkbookLoadsTotal   metric.Int64Counter
	WorkbookLoadDuration metric.Float64Histogram
	WorkbookCacheHits    metric.Int64Counter
	WorkbookCacheMisses  metric.Int64Counter
	WorkbookPapers       metric.Int64Gauge

	SnapshotsArchived metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.WorkbookLoadsTotal, err = meter.Int64Counter(
		"workbook_loads_total",
		metric.WithDescription("Workbook parses, labelled by result"),
	); err != nil {
		return nil, err
	}

	if m.WorkbookLoadDuration, err = meter.Float64Histogram(
		"workbook_load_duration_seconds",
		metric.WithDescription("Time spent parsing the workbook"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.WorkbookCacheHits, err = meter.Int64Counter(
		"workbook_cache_hits_total",
		metric.WithDescription("Snapshot requests served from the cache"),
	); err != nil {
		return nil, err
	}

	if m.WorkbookCacheMisses, err = meter.Int64Counter(
		"workbook_cache_misses_total",
		metric.WithDescription("Snapshot requests that required a parse"),
	); err != nil {
		return nil, err
	}

	if m.WorkbookPapers, err = meter.Int64Gauge(
		"workbook_papers",
		metric.WithDescription("Papers in the most recently parsed snapshot"),
	); err != nil {
		return nil, err
	}

	if m.SnapshotsArchived, err = meter.Int64Counter(
		"snapshots_archived_total",
		metric.WithDescription("Snapshots written to the archive database"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// CacheHit records a snapshot served from the loader cache.
func (m *BusinessMetrics) CacheHit(ctx context.Context) {
	m.WorkbookCacheHits.Add(ctx, 1)
}

// CacheMiss records a snapshot request that needed a parse.
func (m *BusinessMetrics) CacheMiss(ctx context.Context) {
	m.WorkbookCacheMisses.Add(ctx, 1)
}

// Loaded records the outcome of one workbook parse.
func (m *BusinessMetrics) Loaded(ctx context.Context, d time.Duration, papers int, err error) {
	result := attribute.String("result", "success")
	if err != nil {
		result = attribute.String("result", "error")
	}
	m.WorkbookLoadsTotal.Add(ctx, 1, metric.WithAttributes(result))
	m.WorkbookLoadDuration.Record(ctx, d.Seconds(), metric.WithAttributes(result))
	if err == nil {
		m.WorkbookPapers.Record(ctx, int64(papers))
	}
}

// RecordHTTPRequest records one completed request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordSnapshotArchived counts one archived snapshot.
func (m *BusinessMetrics) RecordSnapshotArchived(ctx context.Context) {
	m.SnapshotsArchived.Add(ctx, 1)
}
