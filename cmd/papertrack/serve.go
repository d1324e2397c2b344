package main

import (
	"github.com/spf13/cobra"

	"papertrack/internal/app"
	"papertrack/internal/infrastructure"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if root.verbose {
				cfg.Logging.Level = "debug"
			}

			application, err := app.NewApplication(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer infrastructure.CloseLogFile()

			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host, overrides server.host")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port, overrides server.port")
	return cmd
}
