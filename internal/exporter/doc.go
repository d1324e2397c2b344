// Package exporter writes tracker reports as CSV.
//
// CSVWriter is the low-level writer: headers, append mode and a UTF-8 BOM so
// spreadsheet applications pick the right encoding. ReportExporter renders
// papers, author statistics and summaries on top of it, either to files or
// to any io.Writer such as an HTTP response.
//
// Example usage:
//
//	exp := exporter.NewReportExporter(logger)
//	paths, err := exp.ExportAll(ctx, "out", papers, summary, authors)
package exporter
