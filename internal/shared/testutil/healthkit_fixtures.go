package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// WorkoutFixture is one row of the raw workouts table
type WorkoutFixture struct {
	ID                    string
	ActivityType          string
	Duration              float64
	DurationUnit          string
	TotalDistance         float64
	TotalDistanceUnit     string
	TotalEnergyBurned     float64
	TotalEnergyBurnedUnit string
	SourceName            string
	StartDate             string
	EndDate               string
}

// Walk returns a walking workout fixture with sensible totals
func Walk(id, start, end string, distanceKm float64) WorkoutFixture {
	return WorkoutFixture{
		ID:                    id,
		ActivityType:          "HKWorkoutActivityTypeWalking",
		Duration:              10,
		DurationUnit:          "min",
		TotalDistance:         distanceKm,
		TotalDistanceUnit:     "km",
		TotalEnergyBurned:     55,
		TotalEnergyBurnedUnit: "kcal",
		SourceName:            "Apple Watch",
		StartDate:             start,
		EndDate:               end,
	}
}

// HealthKitDB builds a raw database with the tables the conversion tool produces
type HealthKitDB struct {
	Path string
	db   *sql.DB
	t    *testing.T
}

const healthKitSchema = `
CREATE TABLE workouts (
	id TEXT PRIMARY KEY,
	workoutActivityType TEXT,
	duration TEXT,
	durationUnit TEXT,
	totalDistance TEXT,
	totalDistanceUnit TEXT,
	totalEnergyBurned TEXT,
	totalEnergyBurnedUnit TEXT,
	sourceName TEXT,
	sourceVersion TEXT,
	creationDate TEXT,
	startDate TEXT,
	endDate TEXT,
	metadata_HKTimeZone TEXT
);
CREATE TABLE workout_points (
	date TEXT,
	latitude REAL,
	longitude REAL,
	altitude REAL,
	horizontalAccuracy REAL,
	verticalAccuracy REAL,
	course REAL,
	speed REAL,
	workout_id TEXT REFERENCES workouts(id)
);`

// NewHealthKitDB creates an empty raw database named name inside dir
func NewHealthKitDB(t *testing.T, dir, name string) *HealthKitDB {
	t.Helper()

	path := filepath.Join(dir, name)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture database: %v", err)
	}
	if _, err := db.Exec(healthKitSchema); err != nil {
		db.Close()
		t.Fatalf("create fixture schema: %v", err)
	}

	h := &HealthKitDB{Path: path, db: db, t: t}
	t.Cleanup(func() { db.Close() })
	return h
}

// AddWorkout inserts one workouts row
func (h *HealthKitDB) AddWorkout(w WorkoutFixture) *HealthKitDB {
	h.t.Helper()
	h.exec(`INSERT INTO workouts (id, workoutActivityType, duration, durationUnit, totalDistance,
		totalDistanceUnit, totalEnergyBurned, totalEnergyBurnedUnit, sourceName, startDate, endDate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.ActivityType, fmt.Sprint(w.Duration), w.DurationUnit, fmt.Sprint(w.TotalDistance),
		w.TotalDistanceUnit, fmt.Sprint(w.TotalEnergyBurned), w.TotalEnergyBurnedUnit, w.SourceName,
		w.StartDate, w.EndDate)
	return h
}

// AddPoint inserts one route sample
func (h *HealthKitDB) AddPoint(workoutID, date string, latitude, longitude float64) *HealthKitDB {
	h.t.Helper()
	h.exec(`INSERT INTO workout_points (date, latitude, longitude, workout_id) VALUES (?, ?, ?, ?)`,
		date, latitude, longitude, workoutID)
	return h
}

// AddPointWithoutCoordinates inserts a sample whose latitude and longitude are NULL
func (h *HealthKitDB) AddPointWithoutCoordinates(workoutID, date string) *HealthKitDB {
	h.t.Helper()
	h.exec(`INSERT INTO workout_points (date, workout_id) VALUES (?, ?)`, date, workoutID)
	return h
}

// Close closes the fixture connection so other readers see a quiescent file
func (h *HealthKitDB) Close() {
	h.db.Close()
}

func (h *HealthKitDB) exec(query string, args ...any) {
	h.t.Helper()
	if _, err := h.db.Exec(query, args...); err != nil {
		h.t.Fatalf("fixture exec: %v", err)
	}
}
