package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved absolute locations used by one run
type Paths struct {
	BaseDir         string
	DataDir         string
	LogsDir         string
	SQLDir          string
	WorkingDatabase string
	DatabasePattern string
	SummaryFile     string
	CitiesFile      string
	Admin1File      string
	MetricsFile     string
}

// Resolve turns the configured paths into absolute ones.
// Relative entries are joined onto BaseDir, which defaults to the working directory.
func (c *Config) Resolve() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	dataDir := abs(c.Paths.DataDir)

	p := &Paths{
		BaseDir:         base,
		DataDir:         dataDir,
		LogsDir:         abs(c.Paths.LogsDir),
		SQLDir:          abs(c.Paths.SQLDir),
		DatabasePattern: c.Paths.DatabasePattern,
		CitiesFile:      abs(c.Geocode.CitiesFile),
		Admin1File:      abs(c.Geocode.Admin1File),
		MetricsFile:     abs(c.Telemetry.MetricsFile),
	}
	p.WorkingDatabase = p.inData(c.Paths.WorkingDatabase)
	p.SummaryFile = p.inData(c.Paths.SummaryFile)
	return p, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
		filepath.Dir(p.SummaryFile),
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// inData places bare file names in the data directory; anything with a
// directory part is base-relative
func (p *Paths) inData(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if filepath.Base(name) == name {
		return p.GetDataPath(name)
	}
	return filepath.Join(p.BaseDir, name)
}

// LogFile resolves a configured log file the same way: bare names go in the
// logs directory, anything else is base-relative
func (p *Paths) LogFile(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	if filepath.Base(name) == name {
		return p.GetLogPath(name)
	}
	return filepath.Join(p.BaseDir, name)
}

// GetDataPath returns the path for a file in the data directory
func (p *Paths) GetDataPath(filename string) string {
	return filepath.Join(p.DataDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
			slog.String("sql", p.SQLDir),
		),
		slog.Group("files",
			slog.String("working_database", p.WorkingDatabase),
			slog.String("database_pattern", p.DatabasePattern),
			slog.String("summary", p.SummaryFile),
			slog.String("cities", p.CitiesFile),
			slog.String("admin1", p.Admin1File),
			slog.String("metrics", p.MetricsFile),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
