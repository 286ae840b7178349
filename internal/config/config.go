package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Converter ConverterConfig `yaml:"converter" envconfig:"CONVERTER"`
	Summary   SummaryConfig   `yaml:"summary" envconfig:"SUMMARY"`
	Geocode   GeocodeConfig   `yaml:"geocode" envconfig:"GEOCODE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PathsConfig contains file system paths configuration.
// Relative entries are resolved against BaseDir (the working directory when empty).
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs" validate:"required"`
	SQLDir          string `yaml:"sql_dir" envconfig:"SQL_DIR"`
	WorkingDatabase string `yaml:"working_database" envconfig:"WORKING_DATABASE" default:"healthkit_db.sqlite" validate:"required"`
	DatabasePattern string `yaml:"database_pattern" envconfig:"DATABASE_PATTERN" default:"healthkit_db_*.sqlite" validate:"required"`
	SummaryFile     string `yaml:"summary_file" envconfig:"SUMMARY_FILE" default:"workouts_summary.csv" validate:"required"`
}

// ConverterConfig configures the external archive conversion tool
type ConverterConfig struct {
	Command    string        `yaml:"command" envconfig:"COMMAND" default:"healthkit-to-sqlite" validate:"required"`
	DateLayout string        `yaml:"date_layout" envconfig:"DATE_LAYOUT" default:"2006_01_02" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30m"`
}

// SummaryConfig configures the summary build
type SummaryConfig struct {
	ActivityType    string `yaml:"activity_type" envconfig:"ACTIVITY_TYPE" default:"HKWorkoutActivityTypeWalking" validate:"required"`
	Namespace       string `yaml:"namespace" envconfig:"NAMESPACE" default:"d5c0f985-3af0-4cfd-8012-560516582f0f" validate:"required,uuid"`
	SourceTimezone  string `yaml:"source_timezone" envconfig:"SOURCE_TIMEZONE" default:"UTC" validate:"required"`
	Timezone        string `yaml:"timezone" envconfig:"TIMEZONE" default:"Australia/Sydney" validate:"required"`
	IncludeLocation bool   `yaml:"include_location" envconfig:"INCLUDE_LOCATION" default:"false"`
}

// GeocodeConfig points at the offline GeoNames dump used for enrichment
type GeocodeConfig struct {
	CitiesFile    string  `yaml:"cities_file" envconfig:"CITIES_FILE" default:"data/geonames/cities1000.txt"`
	Admin1File    string  `yaml:"admin1_file" envconfig:"ADMIN1_FILE" default:"data/geonames/admin1CodesASCII.txt"`
	MaxDistanceKm float64 `yaml:"max_distance_km" envconfig:"MAX_DISTANCE_KM" default:"0" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/walkcli.log"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" default:"none" validate:"oneof=none stdout"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from environment variables and an optional config file.
// An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config.
// A value set in the environment always wins; otherwise a non-zero file value
// replaces the envconfig default.
func mergeConfigs(fileConfig, envConfig Config) Config {
	p, fp := &envConfig.Paths, fileConfig.Paths
	p.BaseDir = pick(envKey("PATHS", "BASE_DIR"), p.BaseDir, fp.BaseDir)
	p.DataDir = pick(envKey("PATHS", "DATA_DIR"), p.DataDir, fp.DataDir)
	p.LogsDir = pick(envKey("PATHS", "LOGS_DIR"), p.LogsDir, fp.LogsDir)
	p.SQLDir = pick(envKey("PATHS", "SQL_DIR"), p.SQLDir, fp.SQLDir)
	p.WorkingDatabase = pick(envKey("PATHS", "WORKING_DATABASE"), p.WorkingDatabase, fp.WorkingDatabase)
	p.DatabasePattern = pick(envKey("PATHS", "DATABASE_PATTERN"), p.DatabasePattern, fp.DatabasePattern)
	p.SummaryFile = pick(envKey("PATHS", "SUMMARY_FILE"), p.SummaryFile, fp.SummaryFile)

	c, fc := &envConfig.Converter, fileConfig.Converter
	c.Command = pick(envKey("CONVERTER", "COMMAND"), c.Command, fc.Command)
	c.DateLayout = pick(envKey("CONVERTER", "DATE_LAYOUT"), c.DateLayout, fc.DateLayout)
	c.Timeout = pick(envKey("CONVERTER", "TIMEOUT"), c.Timeout, fc.Timeout)

	s, fs := &envConfig.Summary, fileConfig.Summary
	s.ActivityType = pick(envKey("SUMMARY", "ACTIVITY_TYPE"), s.ActivityType, fs.ActivityType)
	s.Namespace = pick(envKey("SUMMARY", "NAMESPACE"), s.Namespace, fs.Namespace)
	s.SourceTimezone = pick(envKey("SUMMARY", "SOURCE_TIMEZONE"), s.SourceTimezone, fs.SourceTimezone)
	s.Timezone = pick(envKey("SUMMARY", "TIMEZONE"), s.Timezone, fs.Timezone)
	s.IncludeLocation = pick(envKey("SUMMARY", "INCLUDE_LOCATION"), s.IncludeLocation, fs.IncludeLocation)

	g, fg := &envConfig.Geocode, fileConfig.Geocode
	g.CitiesFile = pick(envKey("GEOCODE", "CITIES_FILE"), g.CitiesFile, fg.CitiesFile)
	g.Admin1File = pick(envKey("GEOCODE", "ADMIN1_FILE"), g.Admin1File, fg.Admin1File)
	g.MaxDistanceKm = pick(envKey("GEOCODE", "MAX_DISTANCE_KM"), g.MaxDistanceKm, fg.MaxDistanceKm)

	l, fl := &envConfig.Logging, fileConfig.Logging
	l.Level = pick(envKey("LOGGING", "LEVEL"), l.Level, fl.Level)
	l.Format = pick(envKey("LOGGING", "FORMAT"), l.Format, fl.Format)
	l.Output = pick(envKey("LOGGING", "OUTPUT"), l.Output, fl.Output)
	l.FilePath = pick(envKey("LOGGING", "FILE_PATH"), l.FilePath, fl.FilePath)

	t, ft := &envConfig.Telemetry, fileConfig.Telemetry
	t.TraceExporter = pick(envKey("TELEMETRY", "TRACE_EXPORTER"), t.TraceExporter, ft.TraceExporter)
	t.MetricsFile = pick(envKey("TELEMETRY", "METRICS_FILE"), t.MetricsFile, ft.MetricsFile)

	return envConfig
}

func envKey(section, field string) string {
	return EnvPrefix + "_" + section + "_" + field
}

func pick[T comparable](key string, envValue, fileValue T) T {
	var zero T
	if _, ok := os.LookupEnv(key); ok || fileValue == zero {
		return envValue
	}
	return fileValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if _, err := uuid.Parse(c.Summary.Namespace); err != nil {
		return fmt.Errorf("invalid identity namespace %q: %w", c.Summary.Namespace, err)
	}

	if _, err := time.LoadLocation(c.Summary.SourceTimezone); err != nil {
		return fmt.Errorf("invalid source timezone %q: %w", c.Summary.SourceTimezone, err)
	}

	if _, err := time.LoadLocation(c.Summary.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Summary.Timezone, err)
	}

	if c.Converter.Timeout < 0 {
		return fmt.Errorf("converter timeout must not be negative")
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output %q", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:         DefaultDataDir,
			LogsDir:         DefaultLogsDir,
			WorkingDatabase: DefaultWorkingDatabase,
			DatabasePattern: DefaultDatabasePattern,
			SummaryFile:     DefaultSummaryFile,
		},
		Converter: ConverterConfig{
			Command:    DefaultConverterCommand,
			DateLayout: DefaultDateLayout,
			Timeout:    DefaultConverterTimeout,
		},
		Summary: SummaryConfig{
			ActivityType:   DefaultActivityType,
			Namespace:      DefaultNamespace,
			SourceTimezone: DefaultSourceTimezone,
			Timezone:       DefaultTimezone,
		},
		Geocode: GeocodeConfig{
			CitiesFile: "data/geonames/cities1000.txt",
			Admin1File: "data/geonames/admin1CodesASCII.txt",
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: "logs/walkcli.log",
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
		},
	}
}
