// Package extract reads workouts and their start and finish samples from a
// raw database produced by the conversion tool.
//
// Workout ids in the raw database are exporter-internal and only valid
// within one export. Results are always ordered slices; an empty slice is a
// valid answer.
package extract

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/identity"
	"walkcli/internal/infrastructure"
	"walkcli/pkg/contracts/domain"
)

// Store provides read-only access to a raw database
type Store struct {
	db      *sql.DB
	path    string
	queries *Queries
	loc     *time.Location
	logger  *slog.Logger
}

// Open opens the database at path in read-only mode.
// Zone-less timestamps are read in sourceLoc.
func Open(path string, queries *Queries, sourceLoc *time.Location, logger *slog.Logger) (*Store, error) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return nil, apperrors.NewNotFoundError("raw database", path)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sourceLoc == nil {
		sourceLoc = time.UTC
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err).WithContext("path", path)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("ping database", err).WithContext("path", path)
	}

	return &Store{
		db:      db,
		path:    path,
		queries: queries,
		loc:     sourceLoc,
		logger:  infrastructure.WithComponent(logger, "extract"),
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file the store reads
func (s *Store) Path() string {
	return s.path
}

// Workouts returns one metadata row per workout of the activity type, ordered by start date
func (s *Store) Workouts(ctx context.Context, activityType string) ([]domain.WorkoutMeta, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.Workouts, sql.Named("activity_type", activityType))
	if err != nil {
		return nil, apperrors.NewStorageError("query workouts", err)
	}
	defer rows.Close()

	var workouts []domain.WorkoutMeta
	for rows.Next() {
		var (
			w                      domain.WorkoutMeta
			activity, source       sql.NullString
			durationUnit, distUnit sql.NullString
			energyUnit             sql.NullString
			startRaw, endRaw       sql.NullString
			duration, distance     sql.NullFloat64
			energy                 sql.NullFloat64
		)
		if err := rows.Scan(&w.WorkoutID, &activity, &duration, &durationUnit, &distance,
			&distUnit, &energy, &energyUnit, &source, &startRaw, &endRaw); err != nil {
			return nil, apperrors.NewStorageError("scan workout", err)
		}

		w.ActivityType = activity.String
		w.Duration = duration.Float64
		w.DurationUnit = durationUnit.String
		w.TotalDistance = distance.Float64
		w.TotalDistanceUnit = distUnit.String
		w.TotalEnergyBurned = energy.Float64
		w.TotalEnergyBurnedUnit = energyUnit.String
		w.SourceName = source.String

		if w.StartDate, err = ParseTimestamp(startRaw.String, s.loc); err != nil {
			s.logger.WarnContext(ctx, "Unparseable workout start date",
				slog.String("workout_id", w.WorkoutID),
				slog.String("value", startRaw.String))
		} else {
			w.StartRaw = identity.Key(w.StartDate)
		}
		if w.EndDate, err = ParseTimestamp(endRaw.String, s.loc); err != nil {
			s.logger.WarnContext(ctx, "Unparseable workout end date",
				slog.String("workout_id", w.WorkoutID),
				slog.String("value", endRaw.String))
		}

		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate workouts", err)
	}

	s.logger.DebugContext(ctx, "Loaded workouts",
		slog.String("activity_type", activityType),
		slog.Int("count", len(workouts)))
	return workouts, nil
}

// StartPoints returns the earliest sample of every workout of the activity type
func (s *Store) StartPoints(ctx context.Context, activityType string) ([]domain.Point, error) {
	return s.points(ctx, "start", s.queries.StartPoints, activityType)
}

// FinishPoints returns the latest sample of every workout of the activity type
func (s *Store) FinishPoints(ctx context.Context, activityType string) ([]domain.Point, error) {
	return s.points(ctx, "finish", s.queries.FinishPoints, activityType)
}

// points runs an endpoint query. A sample whose timestamp cannot be parsed is
// kept with a zero Timestamp and its Raw value so the caller can flag it.
func (s *Store) points(ctx context.Context, kind, query, activityType string) ([]domain.Point, error) {
	rows, err := s.db.QueryContext(ctx, query, sql.Named("activity_type", activityType))
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("query %s points", kind), err)
	}
	defer rows.Close()

	var points []domain.Point
	for rows.Next() {
		var (
			p        domain.Point
			raw      sql.NullString
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&p.WorkoutID, &lat, &lon, &raw); err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("scan %s point", kind), err)
		}
		p.Latitude, p.Longitude = lat.Float64, lon.Float64
		if !lat.Valid || !lon.Valid {
			p.MissingCoordinates = true
			s.logger.WarnContext(ctx, "Sample without coordinates",
				slog.String("kind", kind),
				slog.String("workout_id", p.WorkoutID))
		}
		p.Raw = raw.String
		if p.Timestamp, err = ParseTimestamp(raw.String, s.loc); err != nil {
			s.logger.WarnContext(ctx, "Unparseable sample timestamp",
				slog.String("kind", kind),
				slog.String("workout_id", p.WorkoutID),
				slog.String("value", raw.String))
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("iterate %s points", kind), err)
	}

	s.logger.DebugContext(ctx, "Loaded endpoint samples",
		slog.String("kind", kind),
		slog.Int("count", len(points)))
	return points, nil
}

// Route returns the ordered track of one workout
func (s *Store) Route(ctx context.Context, workoutID string) ([]domain.RoutePoint, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.Route, sql.Named("workout_id", workoutID))
	if err != nil {
		return nil, apperrors.NewStorageError("query route", err)
	}
	defer rows.Close()

	var (
		route   []domain.RoutePoint
		skipped int
	)
	for rows.Next() {
		var (
			p        domain.RoutePoint
			raw      sql.NullString
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&raw, &lat, &lon); err != nil {
			return nil, apperrors.NewStorageError("scan route point", err)
		}
		if !lat.Valid || !lon.Valid {
			skipped++
			continue
		}
		p.Latitude, p.Longitude = lat.Float64, lon.Float64
		t, err := ParseTimestamp(raw.String, s.loc)
		if err != nil {
			return nil, apperrors.NewParsingError("route sample timestamp", err).
				WithContext("workout_id", workoutID)
		}
		p.Timestamp = t
		route = append(route, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate route", err)
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Route samples without coordinates skipped",
			slog.String("workout_id", workoutID),
			slog.Int("count", skipped))
	}
	return route, nil
}
