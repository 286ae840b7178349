package summary

import (
	"time"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/identity"
	"walkcli/pkg/contracts/domain"
)

// Status tells whether a build produced an artifact
type Status string

const (
	// NoResult means nothing was written: the database was missing or held no matching workouts
	NoResult Status = "no_result"
	// Produced means the summary artifact was written
	Produced Status = "produced"
)

// Outcome is the result of one build. Callers must check Status before
// using Path or Rows.
type Outcome struct {
	Status Status
	Path   string
	Rows   []domain.Workout
	Report *Report
}

// HasResult reports whether an artifact was produced
func (o *Outcome) HasResult() bool {
	return o != nil && o.Status == Produced
}

// StageTiming is the duration of one pipeline stage
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Report collects what a build left out and why
type Report struct {
	Database           string
	Loaded             int
	Written            int
	Duplicates         int
	IncludeLocation    bool
	Dropped            []DroppedWorkout
	Malformed          []apperrors.RowError
	EnrichmentFailures []apperrors.RowError
	Collisions         []identity.Collision
	Stages             []StageTiming
}

func (r *Report) addStage(stage string, d time.Duration) {
	r.Stages = append(r.Stages, StageTiming{Stage: stage, Duration: d})
}
