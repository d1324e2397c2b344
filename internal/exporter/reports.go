package exporter

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"

	"papertrack/pkg/contracts/domain"
)

// File names written by ReportExporter.ExportAll.
const (
	PapersFile  = "papers.csv"
	AuthorsFile = "authors.csv"
	SummaryFile = "summary.csv"
)

var (
	// PaperHeaders are the column titles of the paper export
	PaperHeaders = []string{"#", "Title", "Authors", "Team Size", "Total (INR)", "Paid (INR)", "Balance (INR)", "Status", "Category"}
	// AuthorHeaders are the column titles of the author export
	AuthorHeaders = []string{"Author", "Papers", "Total Amount (INR)"}
	// SummaryHeaders are the column titles of the summary export
	SummaryHeaders = []string{"Metric", "Value"}
)

// PaperRecords renders papers as CSV rows ordered by serial. The input is
// not modified.
func PaperRecords(papers []domain.Paper) [][]string {
	sorted := slices.Clone(papers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Serial < sorted[j].Serial })

	records := make([][]string, 0, len(sorted))
	for _, p := range sorted {
		records = append(records, []string{
			formatInt(p.Serial),
			p.Title,
			p.AuthorNames(),
			formatInt(p.NumAuthors()),
			formatFloat(p.TotalAmount),
			formatFloat(p.TotalPaid),
			formatFloat(p.Balance),
			p.Status.Label(),
			p.Source,
		})
	}
	return records
}

// AuthorRecords renders author statistics in the order given.
func AuthorRecords(stats []domain.AuthorStat) [][]string {
	records := make([][]string, 0, len(stats))
	for _, s := range stats {
		records = append(records, []string{s.Name, formatInt(s.Papers), formatFloat(s.TotalAmount)})
	}
	return records
}

// SummaryRecords renders the headline figures of a summary as metric/value rows.
func SummaryRecords(s domain.Summary) [][]string {
	records := [][]string{
		{"Total Papers", formatInt(s.TotalPapers)},
		{"Unique Authors", formatInt(s.UniqueAuthorCount)},
		{"Total Amount (INR)", formatFloat(s.TotalAmountSum)},
		{"Total Paid (INR)", formatFloat(s.TotalPaidSum)},
		{"Balance (INR)", formatFloat(s.BalanceSum)},
		{"Avg Authors per Paper", formatFloat(s.AvgAuthorsPerPaper)},
		{"Collection Rate (%)", formatFloat(s.CollectionRate)},
	}

	labels := make([]string, 0, len(s.StatusCounts))
	for label := range s.StatusCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		records = append(records, []string{"Status: " + label, formatInt(s.StatusCounts[label])})
	}
	return records
}

// ReportExporter writes the tracker reports as CSV files.
type ReportExporter struct {
	writer *CSVWriter
	logger *slog.Logger
}

// NewReportExporter creates a report exporter
func NewReportExporter(logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExporter{
		writer: NewCSVWriter(logger),
		logger: logger.With(slog.String("component", "report_exporter")),
	}
}

// WritePapers streams the paper export to out.
func (e *ReportExporter) WritePapers(out io.Writer, papers []domain.Paper) error {
	return e.writer.Write(out, WriteOptions{Headers: PaperHeaders, Records: PaperRecords(papers), BOMPrefix: true})
}

// WriteAuthors streams the author export to out.
func (e *ReportExporter) WriteAuthors(out io.Writer, stats []domain.AuthorStat) error {
	return e.writer.Write(out, WriteOptions{Headers: AuthorHeaders, Records: AuthorRecords(stats), BOMPrefix: true})
}

// ExportAll writes papers, authors and summary files into dir and returns
// their paths.
func (e *ReportExporter) ExportAll(ctx context.Context, dir string, papers []domain.Paper, summary domain.Summary, authors []domain.AuthorStat) ([]string, error) {
	files := []struct {
		name    string
		headers []string
		records [][]string
	}{
		{PapersFile, PaperHeaders, PaperRecords(papers)},
		{AuthorsFile, AuthorHeaders, AuthorRecords(authors)},
		{SummaryFile, SummaryHeaders, SummaryRecords(summary)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, f.name)
		if err := e.writer.WriteSimpleCSV(path, f.headers, f.records); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	e.logger.InfoContext(ctx, "reports exported",
		slog.String("dir", dir),
		slog.Int("papers", len(papers)),
		slog.Int("authors", len(authors)))
	return paths, nil
}
