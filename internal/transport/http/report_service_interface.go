package http

import (
	"context"

	"papertrack/internal/services"
	"papertrack/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations the handlers need
type ReportServiceInterface interface {
	Status(ctx context.Context) (services.SourceStatus, error)
	Papers(ctx context.Context, filter *domain.Filter) ([]domain.Paper, error)
	Summary(ctx context.Context, filter *domain.Filter) (domain.Summary, error)
	Authors(ctx context.Context, filter *domain.Filter, sortBy domain.AuthorSort, limit int) ([]domain.AuthorStat, error)
	Facets(ctx context.Context) (domain.Facets, error)
	Roster(ctx context.Context) (services.Roster, error)
	Pricing(ctx context.Context) (domain.Table, error)
	Refresh(ctx context.Context) (services.SourceStatus, error)

	ArchiveSnapshot(ctx context.Context) (services.ArchiveResult, error)
	ArchivedSnapshots(ctx context.Context) ([]domain.SnapshotInfo, error)
	ArchivedPapers(ctx context.Context, snapshotID string) ([]domain.Paper, error)
}

var _ ReportServiceInterface = (*services.ReportService)(nil)
