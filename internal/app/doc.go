// Package app wires papertrack together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, PAPERTRACK_* environment)
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Build the sheet parser, the cached workbook loader and, when
//     archive.path is set, the SQLite snapshot archive
//  4. Create the report and health services
//  5. Build the chi router with the middleware chain and mount the handlers
//  6. Serve until interrupted, then shut down gracefully
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	a, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	return a.Run(ctx)
package app
