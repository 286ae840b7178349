package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"walkcli/internal/config"
	"walkcli/internal/converter"
	apperrors "walkcli/internal/errors"
	"walkcli/internal/exporter"
	"walkcli/internal/extract"
	"walkcli/internal/files"
	"walkcli/internal/geocode"
	"walkcli/internal/identity"
	"walkcli/internal/infrastructure"
	"walkcli/internal/summary"
	"walkcli/internal/validation"
	"walkcli/pkg/contracts/domain"
)

// Dependencies are the optional collaborators of a PipelineService.
// Nil fields are built from configuration.
type Dependencies struct {
	Tool      converter.Tool
	Geocoder  geocode.Geocoder
	Telemetry *infrastructure.Telemetry
	Logger    *slog.Logger
}

// PipelineService runs conversions and summary builds for one configuration.
// ConvertArchive and BuildSummary are the only operations that mutate files.
type PipelineService struct {
	cfg       *config.Config
	paths     *config.Paths
	converter *converter.Service
	discovery *files.Discovery
	queries   *extract.Queries
	assigner  *identity.Assigner
	sourceLoc *time.Location
	localLoc  *time.Location
	writer    *exporter.SummaryWriter
	csv       *exporter.CSVWriter
	validator *validation.FileValidator
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger

	geocoderOnce sync.Once
	geocoder     geocode.Geocoder
	geocoderErr  error
}

// SummaryRequest describes one summary build
type SummaryRequest struct {
	// DatabasePath defaults to the most recent dated database
	DatabasePath string
	// OutputPath defaults to the configured summary file
	OutputPath      string
	IncludeLocation bool
}

// RouteRequest describes one route export
type RouteRequest struct {
	DatabasePath string
	WorkoutID    string
	// OutputPath is optional; the route is only returned when empty
	OutputPath string
}

// NewPipelineService creates the pipeline service
func NewPipelineService(cfg *config.Config, paths *config.Paths, deps Dependencies) (*PipelineService, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	telemetry := deps.Telemetry
	if telemetry == nil {
		telemetry = infrastructure.NewNoopTelemetry()
	}

	assigner, err := identity.NewAssigner(cfg.Summary.Namespace)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid identity namespace", err)
	}
	sourceLoc, err := time.LoadLocation(cfg.Summary.SourceTimezone)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid source timezone", err)
	}
	localLoc, err := time.LoadLocation(cfg.Summary.Timezone)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid timezone", err)
	}
	queries, err := extract.LoadQueries(paths.SQLDir)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load query templates", err)
	}

	tool := deps.Tool
	if tool == nil {
		tool = converter.NewExecTool(cfg.Converter.Command, cfg.Converter.Timeout)
	}

	s := &PipelineService{
		cfg:   cfg,
		paths: paths,
		converter: converter.NewService(converter.Options{
			Tool:            tool,
			DataDir:         paths.DataDir,
			WorkingDatabase: paths.WorkingDatabase,
			DateLayout:      cfg.Converter.DateLayout,
			Logger:          logger,
		}),
		discovery: files.NewDiscovery(paths.DataDir),
		queries:   queries,
		assigner:  assigner,
		sourceLoc: sourceLoc,
		localLoc:  localLoc,
		writer:    exporter.NewSummaryWriter(logger),
		csv:       exporter.NewCSVWriter(logger),
		validator: validation.NewFileValidator(infrastructure.WithComponent(logger, "validation")),
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
	}
	if deps.Geocoder != nil {
		s.geocoderOnce.Do(func() { s.geocoder = deps.Geocoder })
	}

	s.logger.Debug("PipelineService initialized",
		slog.String("data_dir", paths.DataDir),
		slog.String("summary_file", paths.SummaryFile),
		slog.String("activity_type", cfg.Summary.ActivityType),
		slog.Any("query_sources", queries.Sources))

	return s, nil
}

// ConvertArchive converts an export archive into a dated raw database
func (s *PipelineService) ConvertArchive(ctx context.Context, archivePath string) (*converter.Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	ctx, end := s.telemetry.StartStage(ctx, "convert", attribute.String("archive", archivePath))

	result, err := s.converter.Convert(ctx, archivePath)
	end(err)

	outcome := "success"
	if err != nil {
		outcome = "failed"
		if errType := apperrors.TypeOf(err); errType != "" {
			outcome = strings.ToLower(string(errType))
		}
	}
	s.telemetry.Metrics.RecordConversion(ctx, outcome, time.Since(start))

	return result, err
}

// LatestDatabase returns the newest dated raw database and how many exist
func (s *PipelineService) LatestDatabase(_ context.Context) (files.FileInfo, int, error) {
	return s.discovery.LatestDatabase(s.paths.DataDir, s.paths.DatabasePattern)
}

// BuildSummary builds the canonical summary. Callers must check the
// outcome's Status: a missing database or one without walking workouts
// yields NoResult.
func (s *PipelineService) BuildSummary(ctx context.Context, req SummaryRequest) (*summary.Outcome, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	dbPath, err := s.databasePath(ctx, req.DatabasePath)
	if err != nil {
		return &summary.Outcome{Status: summary.NoResult, Report: &summary.Report{}}, err
	}
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = s.paths.SummaryFile
	}
	if err := s.validator.ValidateOutputPath(outputPath, ".csv", ".xlsx"); err != nil {
		return &summary.Outcome{Status: summary.NoResult, Report: &summary.Report{Database: dbPath}}, err
	}

	cfg := summary.Config{
		ActivityType: s.cfg.Summary.ActivityType,
		Assigner:     s.assigner,
		Timezone:     s.localLoc,
		Open:         s.openSource,
		Writer:       s.writer,
		Telemetry:    s.telemetry,
		Logger:       s.logger,
	}
	if req.IncludeLocation {
		geocoder, err := s.loadGeocoder(ctx)
		if err != nil {
			return &summary.Outcome{Status: summary.NoResult, Report: &summary.Report{Database: dbPath}}, err
		}
		cfg.Geocoder = geocoder
	}

	ctx, end := s.telemetry.StartStage(ctx, "summary",
		attribute.String("database", dbPath),
		attribute.Bool("include_location", req.IncludeLocation))
	outcome, err := summary.NewBuilder(cfg).Build(ctx, dbPath, summary.Options{
		OutputPath:      outputPath,
		IncludeLocation: req.IncludeLocation,
	})
	end(err)

	return outcome, err
}

// Route returns the ordered track of one workout and optionally writes it as CSV
func (s *PipelineService) Route(ctx context.Context, req RouteRequest) ([]domain.RoutePoint, error) {
	if req.WorkoutID == "" {
		return nil, apperrors.NewAppValidationError("workout id is required")
	}
	dbPath, err := s.databasePath(ctx, req.DatabasePath)
	if err != nil {
		return nil, err
	}
	if req.OutputPath != "" {
		if err := s.validator.ValidateOutputPath(req.OutputPath, ".csv"); err != nil {
			return nil, err
		}
	}

	store, err := extract.Open(dbPath, s.queries, s.sourceLoc, s.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	route, err := store.Route(ctx, req.WorkoutID)
	if err != nil {
		return nil, err
	}
	if len(route) == 0 {
		return nil, apperrors.NewNotFoundError("route samples for workout", req.WorkoutID)
	}

	if req.OutputPath != "" {
		if err := s.csv.WriteRoute(req.OutputPath, req.WorkoutID, route); err != nil {
			return nil, apperrors.NewStorageError("failed to write route", err).
				WithContext("path", req.OutputPath)
		}
	}
	return route, nil
}

// databasePath resolves an empty path to the latest dated database and
// checks that the result is a SQLite file
func (s *PipelineService) databasePath(ctx context.Context, path string) (string, error) {
	if path == "" {
		latest, count, err := s.LatestDatabase(ctx)
		if err != nil {
			return "", err
		}
		s.logger.InfoContext(ctx, "Using latest raw database",
			slog.String("path", latest.Path),
			slog.Int("candidates", count))
		path = latest.Path
	}
	if err := s.validator.ValidateDatabase(path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *PipelineService) openSource(path string) (summary.Source, error) {
	store, err := extract.Open(path, s.queries, s.sourceLoc, s.logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loadGeocoder loads the GeoNames index once per service
func (s *PipelineService) loadGeocoder(ctx context.Context) (geocode.Geocoder, error) {
	s.geocoderOnce.Do(func() {
		start := time.Now()
		index, err := geocode.LoadGeoNames(s.paths.CitiesFile, s.paths.Admin1File, s.cfg.Geocode.MaxDistanceKm)
		if err != nil {
			s.geocoderErr = fmt.Errorf("load place index: %w", err)
			return
		}
		s.geocoder = index
		s.logger.InfoContext(ctx, "Place index loaded",
			slog.String("path", s.paths.CitiesFile),
			slog.Int("places", index.Len()),
			slog.Int("skipped", index.Skipped()),
			slog.Duration("duration", time.Since(start)))
	})
	return s.geocoder, s.geocoderErr
}
