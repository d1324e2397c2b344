// Package config loads and validates papertrack's runtime configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones
// overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A YAML file, passed explicitly or found at papertrack.yaml or
//     configs/papertrack.yaml
//  3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// All environment variables use the PAPERTRACK_ prefix followed by the
// section and field name:
//
//	PAPERTRACK_SERVER_PORT=8080
//	PAPERTRACK_WORKBOOK_PATH=/srv/data/tracker.xlsx
//	PAPERTRACK_WORKBOOK_CACHE_SIZE=4
//	PAPERTRACK_LOGGING_LEVEL=debug
//	PAPERTRACK_TELEMETRY_TRACE_EXPORTER=stdout
//	PAPERTRACK_ARCHIVE_PATH=data/archive.db
//
// Run "papertrack config" to print the full list.
//
// # YAML File
//
//	server:
//	  port: 8080
//	  read_timeout: 15s
//	workbook:
//	  path: ../data/tracker.xlsx
//	  cache_size: 4
//	archive:
//	  path: archive.db
//
// Relative workbook and archive paths in the file are resolved against the
// file's directory; relative paths from the environment are resolved against
// the working directory. Unknown keys in the file are rejected.
package config
