// Package services holds the business layer shared by the HTTP API and the
// command line tool.
//
// # Services
//
//	- ReportService: answers paper, summary, author, roster and pricing
//	  queries against the current workbook snapshot, refreshes the cache and
//	  archives snapshots when an archive is configured.
//	- HealthService: liveness, readiness and version information.
//
// Services depend on small interfaces (SnapshotSource, SnapshotArchive,
// WorkbookSource, Pinger) so tests can substitute fakes:
//
//	loader, _ := dataprocessing.NewLoader(path, parser)
//	svc, err := services.NewReportService(loader, logger,
//	    services.WithArchive(store))
//
// # Errors
//
// ErrNoDataSource, ErrArchiveDisabled and ErrInvalidSort are sentinels for
// handlers to match with errors.Is. Errors from the loader and the archive
// are passed through unchanged so their AppError type survives.
package services
