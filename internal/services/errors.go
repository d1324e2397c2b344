package services

import "errors"

// Report service errors
var (
	// ErrNoDataSource means the workbook file does not exist, so there is
	// nothing to archive or export.
	ErrNoDataSource = errors.New("no data source: workbook file not found")

	// ErrArchiveDisabled means no archive database is configured.
	ErrArchiveDisabled = errors.New("snapshot archive is not configured")

	// ErrInvalidSort is returned for an author ranking other than papers or amount.
	ErrInvalidSort = errors.New("invalid author sort")
)
