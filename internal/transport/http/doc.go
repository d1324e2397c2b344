// Package http implements the HTTP handlers of the papertrack API. Handlers
// stay thin: they parse the request, call the service layer and render the
// result with chi/render.
//
// # Routes
//
// Mounted under /api by the application router:
//
//	GET  /health, /health/ready, /health/live, /version
//	GET  /status                     workbook path, snapshot ID, source_missing
//	GET  /papers                     filtered papers
//	POST /papers/query               JSON domain.Filter, validated
//	GET  /summary                    KPI rollups plus top authors
//	GET  /authors?sort=papers|amount&limit=N
//	GET  /facets, /clients, /pricing
//	POST /refresh                    drop cached snapshots and reload
//	POST /snapshots                  archive the current snapshot
//	GET  /snapshots, /snapshots/{id}/papers
//	GET  /export/papers.csv, /export/authors.csv
//
// # Filters
//
// source and status may repeat. An absent parameter selects every value
// present in the workbook, while a present but empty one (?source=) selects
// none. author and title are case-insensitive substring matches.
//
// # Errors
//
// Failures are RFC 7807 problem documents produced by
// internal/errors.ErrorHandler. An unreadable workbook answers 503 with type
// /errors/data/source-unreadable.
package http
