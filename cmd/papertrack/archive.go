package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"papertrack/internal/exporter"
	"papertrack/internal/services"
	"papertrack/pkg/contracts/domain"
)

func newArchiveCmd(root *rootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive the current workbook snapshot",
		Long: `Archive stores the current workbook snapshot in the SQLite archive given
by archive.path or --db. Archiving an unchanged workbook again is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, _, err := root.openReport(cmd, dbPath)
			if err != nil {
				return err
			}
			defer report.Close()

			result, err := report.ArchiveSnapshot(cmd.Context())
			if err != nil {
				return archiveError(err)
			}

			verb := "archived"
			if !result.Created {
				verb = "already archived"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot %s (%d papers)\n", verb, result.Snapshot.ID, result.Snapshot.PaperCount)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "archive database, overrides archive.path")
	cmd.AddCommand(newArchiveListCmd(root, &dbPath), newArchivePapersCmd(root, &dbPath))
	return cmd
}

func newArchiveListCmd(root *rootOptions, dbPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, _, err := root.openReport(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer report.Close()

			snapshots, err := report.ArchivedSnapshots(cmd.Context())
			if err != nil {
				return archiveError(err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snapshots)
			}
			return writeTable(cmd.OutOrStdout(), []string{"ID", "Loaded", "Modified", "Papers", "Path"}, snapshotRows(snapshots))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newArchivePapersCmd(root *rootOptions, dbPath *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "papers SNAPSHOT_ID",
		Short: "List the papers of an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, _, err := root.openReport(cmd, *dbPath)
			if err != nil {
				return err
			}
			defer report.Close()

			papers, err := report.ArchivedPapers(cmd.Context(), args[0])
			if err != nil {
				return archiveError(err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), papers)
			}
			return writeTable(cmd.OutOrStdout(), exporter.PaperHeaders, exporter.PaperRecords(papers))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func snapshotRows(snapshots []domain.SnapshotInfo) [][]string {
	rows := make([][]string, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, []string{
			s.ID,
			s.LoadedAt.Format(time.DateTime),
			s.ModTime.Format(time.DateTime),
			fmt.Sprint(s.PaperCount),
			s.Path,
		})
	}
	return rows
}

func archiveError(err error) error {
	if errors.Is(err, services.ErrArchiveDisabled) {
		return fmt.Errorf("%w: set archive.path or pass --db", err)
	}
	return err
}
