// Package summary builds the canonical walking-workout summary from a raw
// database.
//
// Build runs a fixed sequence of transforms: load, join start and finish
// samples, elapsed time, merge onto workout metadata with identity
// assignment, start-time normalisation, deduplication by identity, optional
// reverse geocoding, and finally a full rewrite of the summary artifact.
// Row-level problems are collected in the Report and never abort a build.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/geocode"
	"walkcli/internal/identity"
	"walkcli/internal/infrastructure"
	"walkcli/pkg/contracts/domain"
)

// Source reads workouts and endpoint samples from one raw database
type Source interface {
	Workouts(ctx context.Context, activityType string) ([]domain.WorkoutMeta, error)
	StartPoints(ctx context.Context, activityType string) ([]domain.Point, error)
	FinishPoints(ctx context.Context, activityType string) ([]domain.Point, error)
	Close() error
}

// Opener opens a Source; a missing database must be a NOT_FOUND error
type Opener func(path string) (Source, error)

// Writer persists the summary artifact, replacing any previous one
type Writer interface {
	Write(path string, workouts []domain.Workout, includeLocation bool) error
}

// Config wires a Builder
type Config struct {
	ActivityType string
	Assigner     *identity.Assigner
	Timezone     *time.Location
	Open         Opener
	Writer       Writer
	// Geocoder is required only for builds with IncludeLocation
	Geocoder  geocode.Geocoder
	Telemetry *infrastructure.Telemetry
	Logger    *slog.Logger
}

// Options controls one build
type Options struct {
	OutputPath      string
	IncludeLocation bool
}

// Builder runs summary builds
type Builder struct {
	cfg       Config
	validate  *validator.Validate
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
}

// NewBuilder creates a summary builder
func NewBuilder(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	telemetry := cfg.Telemetry
	if telemetry == nil {
		telemetry = infrastructure.NewNoopTelemetry()
	}
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}

	return &Builder{
		cfg:       cfg,
		validate:  validator.New(),
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "summary"),
	}
}

// Build builds the summary of the database at dbPath and writes it to opts.OutputPath
func (b *Builder) Build(ctx context.Context, dbPath string, opts Options) (*Outcome, error) {
	report := &Report{Database: dbPath, IncludeLocation: opts.IncludeLocation}
	noResult := &Outcome{Status: NoResult, Report: report}
	metrics := b.telemetry.Metrics

	if opts.IncludeLocation && b.cfg.Geocoder == nil {
		return noResult, apperrors.NewConfigError("location enrichment requested without a geocoder", nil)
	}
	if opts.OutputPath == "" {
		return noResult, apperrors.NewConfigError("no summary output path", nil)
	}

	source, err := b.cfg.Open(dbPath)
	if err != nil {
		infrastructure.WithError(b.logger, err).WarnContext(ctx, "Raw database unavailable",
			slog.String("path", dbPath))
		metrics.RecordBuild(ctx, string(NoResult))
		return noResult, err
	}
	defer source.Close()

	// 1. load
	metas, starts, finishes, err := b.load(ctx, source, report)
	if err != nil {
		metrics.RecordBuild(ctx, "failed")
		return noResult, err
	}
	report.Loaded = len(metas)
	metrics.AddRows(ctx, "loaded", len(metas))

	if len(metas) == 0 {
		b.logger.InfoContext(ctx, "No workouts to summarise",
			slog.String("path", dbPath),
			slog.String("activity_type", b.cfg.ActivityType))
		metrics.RecordBuild(ctx, string(NoResult))
		return noResult, nil
	}

	// 2-5. join, elapsed time, merge with identity, normalise
	rows := b.transform(ctx, metas, starts, finishes, report)

	// 6. optional enrichment
	if opts.IncludeLocation {
		b.enrich(ctx, rows, report)
	}

	if len(rows) == 0 {
		b.logger.WarnContext(ctx, "Every workout was excluded",
			slog.Int("loaded", report.Loaded),
			slog.Int("dropped", len(report.Dropped)),
			slog.Int("malformed", len(report.Malformed)))
		metrics.RecordBuild(ctx, string(NoResult))
		return noResult, nil
	}

	// 7. persist
	SortRows(rows)
	stageStart := time.Now()
	_, end := b.telemetry.StartStage(ctx, "summary.persist")
	err = b.cfg.Writer.Write(opts.OutputPath, rows, opts.IncludeLocation)
	end(err)
	report.addStage("persist", time.Since(stageStart))
	if err != nil {
		metrics.RecordBuild(ctx, "failed")
		return noResult, apperrors.NewStorageError("failed to write summary", err).
			WithContext("path", opts.OutputPath)
	}

	report.Written = len(rows)
	metrics.AddRows(ctx, "written", len(rows))
	metrics.RecordBuild(ctx, string(Produced))

	b.logger.InfoContext(ctx, "Summary written",
		slog.String("path", opts.OutputPath),
		slog.Int("rows", report.Written),
		slog.Int("dropped", len(report.Dropped)),
		slog.Int("malformed", len(report.Malformed)),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("enrichment_failures", len(report.EnrichmentFailures)))

	return &Outcome{Status: Produced, Path: opts.OutputPath, Rows: rows, Report: report}, nil
}

func (b *Builder) load(ctx context.Context, source Source, report *Report) ([]domain.WorkoutMeta, []domain.Point, []domain.Point, error) {
	stageStart := time.Now()
	ctx, end := b.telemetry.StartStage(ctx, "summary.load")

	metas, err := source.Workouts(ctx, b.cfg.ActivityType)
	if err != nil {
		end(err)
		return nil, nil, nil, fmt.Errorf("load workouts: %w", err)
	}
	starts, err := source.StartPoints(ctx, b.cfg.ActivityType)
	if err != nil {
		end(err)
		return nil, nil, nil, fmt.Errorf("load start points: %w", err)
	}
	finishes, err := source.FinishPoints(ctx, b.cfg.ActivityType)
	if err != nil {
		end(err)
		return nil, nil, nil, fmt.Errorf("load finish points: %w", err)
	}

	end(nil)
	report.addStage("load", time.Since(stageStart))

	b.logger.DebugContext(ctx, "Loaded raw rows",
		slog.Int("workouts", len(metas)),
		slog.Int("start_points", len(starts)),
		slog.Int("finish_points", len(finishes)))
	return metas, starts, finishes, nil
}

func (b *Builder) transform(ctx context.Context, metas []domain.WorkoutMeta, starts, finishes []domain.Point, report *Report) []domain.Workout {
	stageStart := time.Now()
	ctx, end := b.telemetry.StartStage(ctx, "summary.transform")
	defer func() {
		end(nil)
		report.addStage("transform", time.Since(stageStart))
	}()
	metrics := b.telemetry.Metrics

	pairs, dropped := Join(starts, finishes)
	pairs, malformed := Elapsed(pairs)
	rows, unmatched, badMeta := Merge(pairs, metas, b.cfg.Assigner)

	report.Malformed = append(append(report.Malformed, malformed...), badMeta...)
	report.Dropped = WithoutMalformed(append(append(report.Dropped, dropped...), unmatched...), report.Malformed)
	sortDropped(report.Dropped)

	report.Collisions = b.cfg.Assigner.Collisions(identityKeys(rows))
	for _, c := range report.Collisions {
		b.logger.WarnContext(ctx, "Distinct workouts share one identity",
			slog.String("uuid", c.Identity.String()),
			slog.String("start", c.Key),
			slog.Any("workout_ids", c.WorkoutIDs))
	}

	Normalize(rows, b.cfg.Timezone)

	rows, report.Duplicates = Dedupe(rows)
	rows = b.checkRows(ctx, rows, report)

	for _, d := range report.Dropped {
		b.logger.DebugContext(ctx, "Workout dropped",
			slog.String("workout_id", d.WorkoutID),
			slog.String("reason", d.Reason))
	}
	for _, m := range report.Malformed {
		b.logger.WarnContext(ctx, "Malformed workout excluded",
			slog.String("workout_id", m.WorkoutID),
			slog.String("message", m.Message))
	}

	metrics.AddRows(ctx, "dropped", len(report.Dropped))
	metrics.AddRows(ctx, "malformed", len(report.Malformed))
	metrics.AddRows(ctx, "duplicate", report.Duplicates)
	return rows
}

// checkRows validates each finished row and moves failures to the malformed list
func (b *Builder) checkRows(ctx context.Context, rows []domain.Workout, report *Report) []domain.Workout {
	valid := rows[:0]
	for _, row := range rows {
		if err := b.validate.StructCtx(ctx, row); err != nil {
			report.Malformed = append(report.Malformed, malformedRow(row.WorkoutID, err.Error()))
			continue
		}
		valid = append(valid, row)
	}
	return valid
}

func identityKeys(rows []domain.Workout) map[string]string {
	keys := make(map[string]string, len(rows))
	for _, r := range rows {
		if _, ok := keys[r.WorkoutID]; !ok {
			keys[r.WorkoutID] = r.Meta.StartRaw
		}
	}
	return keys
}

// enrich resolves start and finish locations. A failed lookup leaves that
// location nil and is recorded; it never stops the loop.
func (b *Builder) enrich(ctx context.Context, rows []domain.Workout, report *Report) {
	stageStart := time.Now()
	ctx, end := b.telemetry.StartStage(ctx, "summary.enrich")
	defer func() {
		end(nil)
		report.addStage("enrich", time.Since(stageStart))
	}()

	lookup := func(row *domain.Workout, lat, lon float64) *domain.Location {
		loc, err := b.cfg.Geocoder.Lookup(ctx, lat, lon)
		if err != nil {
			appErr := apperrors.NewEnrichmentError(lat, lon, err)
			report.EnrichmentFailures = append(report.EnrichmentFailures, apperrors.NewRowError(row.WorkoutID, appErr))
			b.telemetry.Metrics.AddEnrichmentFailure(ctx)
			infrastructure.WithError(b.logger, err).WarnContext(ctx, "Location lookup failed",
				slog.String("workout_id", row.WorkoutID),
				slog.Float64("latitude", lat),
				slog.Float64("longitude", lon))
			return nil
		}
		return &loc
	}

	for i := range rows {
		row := &rows[i]
		row.StartLocation = lookup(row, row.StartLatitude, row.StartLongitude)
		row.FinishLocation = lookup(row, row.FinishLatitude, row.FinishLongitude)
	}
}
