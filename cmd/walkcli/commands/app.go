package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"walkcli/internal/config"
	"walkcli/internal/infrastructure"
	"walkcli/internal/services"
)

// app holds everything one command invocation needs
type app struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	service   *services.PipelineService
}

// loadApp loads configuration and builds the pipeline service
func loadApp(opts *globalOptions) (*app, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	paths, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, paths, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, opts.stderr, logger)
	if err != nil {
		return nil, err
	}

	service, err := services.NewPipelineService(cfg, paths, services.Dependencies{
		Telemetry: telemetry,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, paths: paths, logger: logger, telemetry: telemetry, service: service}, nil
}

// newLogger logs to the command's stderr, or through the global logger when a log file is configured
func newLogger(cfg *config.Config, paths *config.Paths, opts *globalOptions) (*slog.Logger, error) {
	if cfg.Logging.Output == "console" {
		return infrastructure.NewLogger(cfg.Logging, opts.stderr)
	}
	logging := cfg.Logging
	logging.FilePath = paths.LogFile(logging.FilePath)
	return infrastructure.InitializeLogger(logging)
}

// close writes the metrics file and stops telemetry
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := a.telemetry.CollectRuntime(ctx)
	a.logger.Debug("Run finished", slog.Any("runtime", stats.FormatStats()))

	if err := a.telemetry.WriteMetrics(a.paths.MetricsFile); err != nil {
		infrastructure.WithError(a.logger, err).Warn("Failed to write metrics")
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		infrastructure.WithError(a.logger, err).Warn("Failed to shut down telemetry")
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		infrastructure.WithError(a.logger, err).Warn("Failed to close log file")
	}
}
