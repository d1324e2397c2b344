package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"papertrack/internal/app"
	"papertrack/internal/exporter"
	"papertrack/internal/validation"
	"papertrack/pkg/contracts/domain"
)

// filterFlags are the paper selection flags shared by the report commands.
// An unset --source or --status selects every value in the workbook; a
// blank one (--source "") selects none.
type filterFlags struct {
	sources  []string
	statuses []string
	author   string
	title    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVar(&f.sources, "source", nil, "work category sheet (repeatable)")
	flags.StringArrayVar(&f.statuses, "status", nil, "status label (repeatable)")
	flags.StringVar(&f.author, "author", "", "case-insensitive author name substring")
	flags.StringVar(&f.title, "title", "", "case-insensitive title substring")
}

// build returns nil when no selection flag was given.
func (f *filterFlags) build(ctx context.Context, cmd *cobra.Command, report *app.Report) (*domain.Filter, error) {
	hasSource := cmd.Flags().Changed("source")
	hasStatus := cmd.Flags().Changed("status")
	if !hasSource && !hasStatus && f.author == "" && f.title == "" {
		return nil, nil
	}

	filter := &domain.Filter{
		Sources:     nonBlank(f.sources),
		Statuses:    nonBlank(f.statuses),
		AuthorQuery: f.author,
		TitleQuery:  f.title,
	}

	if !hasSource || !hasStatus {
		facets, err := report.Facets(ctx)
		if err != nil {
			return nil, err
		}
		if !hasSource {
			filter.Sources = facets.Sources
		}
		if !hasStatus {
			filter.Statuses = facets.Statuses
		}
	}
	return filter, nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func newSummaryCmd(root *rootOptions) *cobra.Command {
	var (
		filter   filterFlags
		asJSON   bool
		topLimit int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPI rollups and the most prolific authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report, _, err := root.openReport(cmd, "")
			if err != nil {
				return err
			}
			defer report.Close()

			f, err := filter.build(ctx, cmd, report)
			if err != nil {
				return err
			}
			summary, err := report.Summary(ctx, f)
			if err != nil {
				return err
			}
			top, err := report.Authors(ctx, f, domain.AuthorSortPapers, topLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Summary    domain.Summary      `json:"summary"`
					TopAuthors []domain.AuthorStat `json:"top_authors"`
				}{summary, top})
			}

			if err := writeTable(out, exporter.SummaryHeaders, exporter.SummaryRecords(summary)); err != nil {
				return err
			}
			return writeTable(out, exporter.AuthorHeaders, exporter.AuthorRecords(top))
		},
	}

	filter.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
	cmd.Flags().IntVar(&topLimit, "top", 10, "number of top authors to list")
	return cmd
}

func newPapersCmd(root *rootOptions) *cobra.Command {
	var (
		filter filterFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "papers",
		Short: "List papers matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report, _, err := root.openReport(cmd, "")
			if err != nil {
				return err
			}
			defer report.Close()

			f, err := filter.build(ctx, cmd, report)
			if err != nil {
				return err
			}
			papers, err := report.Papers(ctx, f)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), papers)
			}
			return writeTable(cmd.OutOrStdout(), exporter.PaperHeaders, exporter.PaperRecords(papers))
		},
	}

	filter.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAuthorsCmd(root *rootOptions) *cobra.Command {
	var (
		filter filterFlags
		sortBy string
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "Rank authors by paper count or amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report, _, err := root.openReport(cmd, "")
			if err != nil {
				return err
			}
			defer report.Close()

			f, err := filter.build(ctx, cmd, report)
			if err != nil {
				return err
			}
			stats, err := report.Authors(ctx, f, domain.AuthorSort(sortBy), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeTable(cmd.OutOrStdout(), exporter.AuthorHeaders, exporter.AuthorRecords(stats))
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", string(domain.AuthorSortPapers), "ranking: papers or amount")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum authors to list, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		filter filterFlags
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write papers, authors and summary CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report, logger, err := root.openReport(cmd, "")
			if err != nil {
				return err
			}
			defer report.Close()

			if err := validation.NewFileValidator(logger).ValidateOutputDirectory(outDir); err != nil {
				return err
			}

			f, err := filter.build(ctx, cmd, report)
			if err != nil {
				return err
			}
			papers, err := report.Papers(ctx, f)
			if err != nil {
				return err
			}
			summary, err := report.Summary(ctx, f)
			if err != nil {
				return err
			}
			authors, err := report.Authors(ctx, f, domain.AuthorSortPapers, 0)
			if err != nil {
				return err
			}

			paths, err := exporter.NewReportExporter(logger).ExportAll(ctx, outDir, papers, summary, authors)
			if err != nil {
				return err
			}

			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "reports", "output directory")
	return cmd
}
