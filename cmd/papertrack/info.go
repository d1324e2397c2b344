package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"papertrack/internal/config"
	"papertrack/pkg/contracts"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "List the environment variables that override the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.Usage(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), contracts.GetVersionInfo())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
