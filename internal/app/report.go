package app

import (
	"context"
	"log/slog"

	"papertrack/internal/archive"
	"papertrack/internal/config"
	"papertrack/internal/dataprocessing"
	"papertrack/internal/services"
	"papertrack/internal/validation"
)

// newLoader builds the cached workbook loader from the workbook section.
// observer may be nil.
func newLoader(cfg config.WorkbookConfig, logger *slog.Logger, observer dataprocessing.LoadObserver) (*dataprocessing.Loader, error) {
	if err := validation.NewFileValidator(logger).ValidateWorkbookPath(cfg.Path); err != nil {
		return nil, err
	}

	schema, err := dataprocessing.LoadSchemaFile(cfg.SchemaFile)
	if err != nil {
		return nil, err
	}

	parser, err := dataprocessing.NewSheetParser(schema, logger)
	if err != nil {
		return nil, err
	}

	opts := []dataprocessing.LoaderOption{
		dataprocessing.WithCacheSize(cfg.CacheSize),
		dataprocessing.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, dataprocessing.WithObserver(observer))
	}
	return dataprocessing.NewLoader(cfg.Path, parser, opts...)
}

// Report is a report service without the HTTP stack, used by one-shot
// commands.
type Report struct {
	*services.ReportService
	archive *archive.Store
}

// OpenReport builds a report service from cfg. The archive is opened only
// when cfg.Archive is enabled. Close releases it.
func OpenReport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loader, err := newLoader(cfg.Workbook, logger, nil)
	if err != nil {
		return nil, err
	}

	var (
		store *archive.Store
		opts  []services.ReportOption
	)
	if cfg.Archive.Enabled() {
		store, err = openArchive(ctx, cfg.Archive.Path, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, services.WithArchive(store))
	}

	svc, err := services.NewReportService(loader, logger, opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	return &Report{ReportService: svc, archive: store}, nil
}

// Close releases the archive, if one was opened.
func (r *Report) Close() error {
	if r.archive == nil {
		return nil
	}
	return r.archive.Close()
}

// openArchive validates path and opens the snapshot archive.
func openArchive(ctx context.Context, path string, logger *slog.Logger) (*archive.Store, error) {
	if err := validation.NewFileValidator(logger).ValidateArchivePath(path); err != nil {
		return nil, err
	}
	return archive.Open(ctx, path, logger)
}
