package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "walkcli"
	AppVersion = "0.3.0"

	// EnvPrefix namespaces every environment variable (WALK_SUMMARY_TIMEZONE, ...)
	EnvPrefix = "WALK"

	// File Paths (relative to the base directory)
	DefaultDataDir         = "data"
	DefaultLogsDir         = "logs"
	DefaultWorkingDatabase = "healthkit_db.sqlite"
	DefaultDatabasePattern = "healthkit_db_*.sqlite"
	DefaultSummaryFile     = "workouts_summary.csv"

	// Converter
	DefaultConverterCommand = "healthkit-to-sqlite"
	DefaultDateLayout       = "2006_01_02"
	DefaultConverterTimeout = 30 * time.Minute

	// Summary
	DefaultActivityType   = "HKWorkoutActivityTypeWalking"
	DefaultNamespace      = "d5c0f985-3af0-4cfd-8012-560516582f0f"
	DefaultSourceTimezone = "UTC"
	DefaultTimezone       = "Australia/Sydney"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
