package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"papertrack/internal/app"
	"papertrack/internal/config"
	"papertrack/internal/infrastructure"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	workbook   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "papertrack",
		Short: "Reports over a research paper tracking workbook",
		Long: `papertrack reads a tracking workbook (one sheet per work category plus
client and pricing sheets) and reports on papers, authors and payments.

Run "papertrack serve" for the JSON API, or use the report commands directly.
Configuration comes from papertrack.yaml and PAPERTRACK_* variables; see
"papertrack config".`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default papertrack.yaml or configs/papertrack.yaml)")
	flags.StringVarP(&opts.workbook, "workbook", "w", "", "tracking workbook, overrides workbook.path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level to stderr")

	cmd.AddCommand(
		newServeCmd(opts),
		newSummaryCmd(opts),
		newPapersCmd(opts),
		newAuthorsCmd(opts),
		newExportCmd(opts),
		newArchiveCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig loads the configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.workbook != "" {
		path, err := filepath.Abs(o.workbook)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workbook path: %w", err)
		}
		cfg.Workbook.Path = path
	}
	return cfg, nil
}

// commandLogger logs to w so stdout carries only report output. Only
// warnings are shown unless --verbose is set.
func (o *rootOptions) commandLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	lc := cfg.Logging
	lc.Level = "warn"
	if o.verbose {
		lc.Level = "debug"
	}
	return infrastructure.NewLogger(lc, w)
}

// openReport loads the configuration and builds a report service for a
// one-shot command. archivePath, when set, overrides archive.path.
func (o *rootOptions) openReport(cmd *cobra.Command, archivePath string) (*app.Report, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if archivePath != "" {
		cfg.Archive.Path = archivePath
	}

	logger := o.commandLogger(cfg, cmd.ErrOrStderr())
	report, err := app.OpenReport(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return report, logger, nil
}
