package domain

import (
	"strings"
	"time"
)

// WorkoutMeta represents one row of the raw workouts table
type WorkoutMeta struct {
	WorkoutID             string    `json:"workout_id" db:"workout_id" validate:"required"`
	ActivityType          string    `json:"activity_type" db:"workoutActivityType"`
	Duration              float64   `json:"duration" db:"duration"`
	DurationUnit          string    `json:"duration_unit" db:"durationUnit"`
	TotalDistance         float64   `json:"total_distance" db:"totalDistance"`
	TotalDistanceUnit     string    `json:"total_distance_unit" db:"totalDistanceUnit"`
	TotalEnergyBurned     float64   `json:"total_energy_burned" db:"totalEnergyBurned"`
	TotalEnergyBurnedUnit string    `json:"total_energy_burned_unit" db:"totalEnergyBurnedUnit"`
	SourceName            string    `json:"source_name" db:"sourceName"`
	StartDate             time.Time `json:"start_date" db:"startDate"`
	EndDate               time.Time `json:"end_date" db:"endDate"`
	// StartRaw is the recorded start as "2006-01-02 15:04:05" in its own offset
	StartRaw string `json:"-"`
}

// DistanceKm returns the total distance converted to kilometres
func (w WorkoutMeta) DistanceKm() float64 {
	switch w.TotalDistanceUnit {
	case "mi":
		return w.TotalDistance * 1.609344
	case "m":
		return w.TotalDistance / 1000
	case "yd":
		return w.TotalDistance * 0.0009144
	default:
		// HealthKit exports distances in km unless the device locale says otherwise
		return w.TotalDistance
	}
}

// Point represents a single geo-tagged sample of a workout.
// WorkoutID is the exporter's internal id and is only valid within one export.
type Point struct {
	WorkoutID string    `json:"workout_id" db:"workout_id"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Timestamp time.Time `json:"timestamp" db:"date"`
	Raw       string    `json:"-"`
	// MissingCoordinates marks a sample stored with a NULL latitude or longitude
	MissingCoordinates bool `json:"-"`
}

// RoutePoint represents one sample of a workout track
type RoutePoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Location represents a reverse-geocoded place
type Location struct {
	Locality string `json:"locality"`
	Region   string `json:"region"`
	Country  string `json:"country"`
}

// IsZero reports whether no place was resolved
func (l Location) IsZero() bool {
	return l.Locality == "" && l.Region == "" && l.Country == ""
}

// String renders the location as "locality, region, country"
func (l Location) String() string {
	if l.IsZero() {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Locality, l.Region, l.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Workout represents one row of the canonical walking-workout summary
type Workout struct {
	UUID            string      `json:"uuid" validate:"required,uuid"`
	WorkoutID       string      `json:"workout_id" validate:"required"`
	StartDatetime   time.Time   `json:"start_datetime"`
	StartLatitude   float64     `json:"start_latitude"`
	StartLongitude  float64     `json:"start_longitude"`
	FinishDatetime  time.Time   `json:"finish_datetime"`
	FinishLatitude  float64     `json:"finish_latitude"`
	FinishLongitude float64     `json:"finish_longitude"`
	ElapsedHours    float64     `json:"elapsed_time_hours" validate:"gt=0"`
	StartLocation   *Location   `json:"start_location,omitempty"`
	FinishLocation  *Location   `json:"finish_location,omitempty"`
	TotalDistanceKm float64     `json:"totaldistance_km"`
	Meta            WorkoutMeta `json:"-"`
}
