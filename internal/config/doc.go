// Package config provides centralized configuration management for walkcli.
// It handles loading configuration from multiple sources, validation, and
// resolution of the on-disk layout used by the pipeline.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern WALK_<SECTION>_<FIELD>:
//
//	WALK_PATHS_DATA_DIR=data
//	WALK_SUMMARY_TIMEZONE=Australia/Sydney
//	WALK_SUMMARY_INCLUDE_LOCATION=true
//	WALK_LOGGING_LEVEL=debug
//
// # Path Management
//
// Config.Resolve produces a Paths value with absolute locations. Bare file
// names (the working database, the summary file) live in the data directory:
//
//	paths, err := cfg.Resolve()
//	summary := paths.SummaryFile
//
// # Usage
//
// The loaded Config is passed explicitly to every component; nothing in the
// pipeline reads package-level settings.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
