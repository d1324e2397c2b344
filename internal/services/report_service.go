package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"papertrack/internal/dataprocessing"
	"papertrack/pkg/contracts/domain"
)

// SnapshotSource supplies workbook snapshots. dataprocessing.Loader is the
// production implementation.
type SnapshotSource interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Refresh(ctx context.Context) (*domain.Snapshot, error)
	Path() string
}

// SnapshotArchive persists snapshots. archive.Store is the production
// implementation.
type SnapshotArchive interface {
	Save(ctx context.Context, snap *domain.Snapshot) (bool, error)
	List(ctx context.Context) ([]domain.SnapshotInfo, error)
	Papers(ctx context.Context, snapshotID string) ([]domain.Paper, error)
}

// SourceStatus describes the workbook behind the current snapshot
type SourceStatus struct {
	Path          string    `json:"path"`
	SourceMissing bool      `json:"source_missing"`
	SnapshotID    string    `json:"snapshot_id"`
	ModTime       time.Time `json:"mod_time,omitzero"`
	LoadedAt      time.Time `json:"loaded_at"`
	PaperCount    int       `json:"paper_count"`
}

// Roster is the client table with its rollup
type Roster struct {
	Stats domain.RosterStats `json:"stats"`
	Table domain.Table       `json:"table"`
}

// ArchiveResult reports the outcome of archiving the current snapshot
type ArchiveResult struct {
	Snapshot domain.SnapshotInfo `json:"snapshot"`
	Created  bool                `json:"created"`
}

// ReportService answers every report query against the current snapshot.
// A nil filter selects all papers.
type ReportService struct {
	source    SnapshotSource
	archive   SnapshotArchive
	onArchive func(context.Context)
	logger    *slog.Logger
}

// ReportOption configures a ReportService
type ReportOption func(*ReportService)

// WithArchive enables snapshot archiving.
func WithArchive(a SnapshotArchive) ReportOption {
	return func(s *ReportService) {
		s.archive = a
	}
}

// WithArchiveHook registers a callback run after each newly archived snapshot.
func WithArchiveHook(fn func(context.Context)) ReportOption {
	return func(s *ReportService) {
		s.onArchive = fn
	}
}

// NewReportService creates a report service over source
func NewReportService(source SnapshotSource, logger *slog.Logger, opts ...ReportOption) (*ReportService, error) {
	if source == nil {
		return nil, fmt.Errorf("snapshot source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &ReportService{
		source: source,
		logger: logger.With(slog.String("component", "report_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot returns the current snapshot
func (s *ReportService) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap, err := s.source.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load workbook",
			slog.String("path", s.source.Path()),
			slog.String("error", err.Error()))
		return nil, err
	}
	return snap, nil
}

// Status reports which workbook is loaded and whether it exists.
func (s *ReportService) Status(ctx context.Context) (SourceStatus, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return SourceStatus{Path: s.source.Path()}, err
	}
	return statusOf(snap), nil
}

func statusOf(snap *domain.Snapshot) SourceStatus {
	return SourceStatus{
		Path:          snap.Path,
		SourceMissing: snap.SourceMissing,
		SnapshotID:    snap.ID,
		ModTime:       snap.ModTime,
		LoadedAt:      snap.LoadedAt,
		PaperCount:    len(snap.Papers),
	}
}

func (s *ReportService) selection(ctx context.Context, filter *domain.Filter) (*domain.Snapshot, []domain.Paper, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if filter == nil {
		return snap, snap.Papers, nil
	}
	return snap, dataprocessing.FilterPapers(snap.Papers, *filter), nil
}

// Papers returns the papers matching filter in workbook order
func (s *ReportService) Papers(ctx context.Context, filter *domain.Filter) ([]domain.Paper, error) {
	_, papers, err := s.selection(ctx, filter)
	if err != nil {
		return nil, err
	}
	if papers == nil {
		papers = []domain.Paper{}
	}
	return papers, nil
}

// Summary aggregates the papers matching filter
func (s *ReportService) Summary(ctx context.Context, filter *domain.Filter) (domain.Summary, error) {
	_, papers, err := s.selection(ctx, filter)
	if err != nil {
		return domain.Summary{}, err
	}
	return dataprocessing.Summarize(papers), nil
}

// Authors ranks the authors of the papers matching filter. limit <= 0 returns all.
func (s *ReportService) Authors(ctx context.Context, filter *domain.Filter, sortBy domain.AuthorSort, limit int) ([]domain.AuthorStat, error) {
	if sortBy == "" {
		sortBy = domain.AuthorSortPapers
	}
	if sortBy != domain.AuthorSortPapers && sortBy != domain.AuthorSortAmount {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, sortBy)
	}

	summary, err := s.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}

	if sortBy == domain.AuthorSortAmount {
		return dataprocessing.TopAuthorsByAmount(summary.AuthorStats, limit), nil
	}
	return dataprocessing.TopAuthorsByPapers(summary.AuthorStats, limit), nil
}

// Facets lists the distinct sources and statuses of the whole snapshot
func (s *ReportService) Facets(ctx context.Context) (domain.Facets, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Facets{}, err
	}
	return dataprocessing.Facets(snap.Papers), nil
}

// Roster returns the client roster with its rollup
func (s *ReportService) Roster(ctx context.Context) (Roster, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Roster{}, err
	}
	return Roster{Stats: dataprocessing.RosterSummary(snap.Clients), Table: snap.Clients}, nil
}

// Pricing returns the pricing reference table
func (s *ReportService) Pricing(ctx context.Context) (domain.Table, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	return snap.Pricing, nil
}

// Refresh discards cached snapshots and reloads the workbook
func (s *ReportService) Refresh(ctx context.Context) (SourceStatus, error) {
	snap, err := s.source.Refresh(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh failed", slog.String("error", err.Error()))
		return SourceStatus{Path: s.source.Path()}, err
	}

	s.logger.InfoContext(ctx, "workbook refreshed",
		slog.String("snapshot_id", snap.ID),
		slog.Int("papers", len(snap.Papers)),
		slog.Bool("source_missing", snap.SourceMissing))
	return statusOf(snap), nil
}

// ArchiveEnabled reports whether an archive is configured
func (s *ReportService) ArchiveEnabled() bool {
	return s.archive != nil
}

// ArchiveSnapshot stores the current snapshot. Archiving the same snapshot
// twice is not an error.
func (s *ReportService) ArchiveSnapshot(ctx context.Context) (ArchiveResult, error) {
	if s.archive == nil {
		return ArchiveResult{}, ErrArchiveDisabled
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ArchiveResult{}, err
	}
	if snap.SourceMissing {
		return ArchiveResult{}, ErrNoDataSource
	}

	created, err := s.archive.Save(ctx, snap)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("archive snapshot %s: %w", snap.ID, err)
	}
	if created && s.onArchive != nil {
		s.onArchive(ctx)
	}
	return ArchiveResult{Snapshot: snap.Info(), Created: created}, nil
}

// ArchivedSnapshots lists archived snapshots, newest first
func (s *ReportService) ArchivedSnapshots(ctx context.Context) ([]domain.SnapshotInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx)
}

// ArchivedPapers returns the papers of one archived snapshot
func (s *ReportService) ArchivedPapers(ctx context.Context, snapshotID string) ([]domain.Paper, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Papers(ctx, snapshotID)
}
