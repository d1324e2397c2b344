package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// WorkbookSource is the part of the loader the health service inspects
type WorkbookSource interface {
	Path() string
	CachedVersions() int
}

// Pinger is implemented by the archive store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	workbook  WorkbookSource
	archive   Pinger
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. archive may be nil when no
// archive database is configured.
func NewHealthService(version string, workbook WorkbookSource, archive Pinger, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, "", "", workbook, archive, logger)
}

// NewHealthServiceWithBuildInfo creates a health service with build information
func NewHealthServiceWithBuildInfo(version, buildTime, buildID string, workbook WorkbookSource, archive Pinger, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		buildID:   buildID,
		workbook:  workbook,
		archive:   archive,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck returns readiness status. A missing workbook is reported
// but does not make the service unready.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"workbook": hs.checkWorkbookHealth(),
		},
	}
	if hs.archive != nil {
		status.Services["archive"] = hs.checkArchiveHealth(ctx)
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	result := map[string]any{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

func (hs *HealthService) checkWorkbookHealth() ServiceHealth {
	if hs.workbook == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "workbook loader not initialized",
		}
	}

	path := hs.workbook.Path()
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("workbook not found, serving empty data: %s", path),
		}
	case err != nil:
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("cannot stat workbook: %v", err),
		}
	case info.IsDir():
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("workbook path is a directory: %s", path),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d cached snapshot(s)", hs.workbook.CachedVersions()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkArchiveHealth(ctx context.Context) ServiceHealth {
	if err := hs.archive.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("archive error: %v", err),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "archive database reachable",
	}
}
