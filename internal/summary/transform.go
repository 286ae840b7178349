package summary

import (
	"fmt"
	"sort"
	"time"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/identity"
	"walkcli/pkg/contracts/domain"
)

// Pair is one start sample joined to one finish sample of the same workout
type Pair struct {
	WorkoutID    string
	Start        domain.Point
	Finish       domain.Point
	ElapsedHours float64
}

// Dropped reasons
const (
	ReasonNoFinish   = "no finish point"
	ReasonNoStart    = "no start point"
	ReasonNoPoints   = "no route points"
	ReasonNoMetadata = "no workout metadata"
)

// DroppedWorkout is a workout id left out by one of the inner joins
type DroppedWorkout struct {
	WorkoutID string
	Reason    string
}

// Join inner-joins start and finish samples on workout id.
// Every start row pairs with every finish row of its id, in start order.
// Ids present on only one side are returned as dropped, sorted by id.
func Join(starts, finishes []domain.Point) ([]Pair, []DroppedWorkout) {
	finishByID := make(map[string][]domain.Point)
	for _, f := range finishes {
		finishByID[f.WorkoutID] = append(finishByID[f.WorkoutID], f)
	}

	var pairs []Pair
	startIDs := make(map[string]bool)
	for _, s := range starts {
		startIDs[s.WorkoutID] = true
		for _, f := range finishByID[s.WorkoutID] {
			pairs = append(pairs, Pair{WorkoutID: s.WorkoutID, Start: s, Finish: f})
		}
	}

	var dropped []DroppedWorkout
	seen := make(map[string]bool)
	for _, s := range starts {
		if _, ok := finishByID[s.WorkoutID]; !ok && !seen[s.WorkoutID] {
			seen[s.WorkoutID] = true
			dropped = append(dropped, DroppedWorkout{WorkoutID: s.WorkoutID, Reason: ReasonNoFinish})
		}
	}
	for _, f := range finishes {
		if !startIDs[f.WorkoutID] && !seen[f.WorkoutID] {
			seen[f.WorkoutID] = true
			dropped = append(dropped, DroppedWorkout{WorkoutID: f.WorkoutID, Reason: ReasonNoStart})
		}
	}
	sortDropped(dropped)

	return pairs, dropped
}

func sortDropped(dropped []DroppedWorkout) {
	sort.SliceStable(dropped, func(i, j int) bool {
		return dropped[i].WorkoutID < dropped[j].WorkoutID
	})
}

// ElapsedHours returns finish minus start in hours, counted in whole seconds
func ElapsedHours(start, finish time.Time) float64 {
	seconds := int64(finish.Sub(start) / time.Second)
	return float64(seconds) / 3600
}

// Elapsed computes the elapsed time of every pair.
// Pairs with a missing coordinate, an unparsed timestamp or a duration that
// is not positive are returned as malformed. A workout with a single sample
// has the same start and finish and so comes out as malformed.
func Elapsed(pairs []Pair) ([]Pair, []apperrors.RowError) {
	var (
		valid     []Pair
		malformed []apperrors.RowError
		reported  = make(map[string]bool)
	)
	reject := func(workoutID, message string) {
		if reported[workoutID] {
			return
		}
		reported[workoutID] = true
		malformed = append(malformed, malformedRow(workoutID, message))
	}

	for _, p := range pairs {
		switch {
		case p.Start.MissingCoordinates:
			reject(p.WorkoutID, "start sample has no coordinates")
			continue
		case p.Finish.MissingCoordinates:
			reject(p.WorkoutID, "finish sample has no coordinates")
			continue
		case p.Start.Timestamp.IsZero():
			reject(p.WorkoutID, fmt.Sprintf("unparseable start timestamp %q", p.Start.Raw))
			continue
		case p.Finish.Timestamp.IsZero():
			reject(p.WorkoutID, fmt.Sprintf("unparseable finish timestamp %q", p.Finish.Raw))
			continue
		}

		p.ElapsedHours = ElapsedHours(p.Start.Timestamp, p.Finish.Timestamp)
		switch {
		case p.ElapsedHours < 0:
			reject(p.WorkoutID, fmt.Sprintf("negative elapsed time %.6f hours", p.ElapsedHours))
			continue
		case p.ElapsedHours == 0:
			reject(p.WorkoutID, "zero elapsed time: start and finish are the same instant")
			continue
		}
		valid = append(valid, p)
	}

	// a workout with one bad pair among several is excluded as a whole
	kept := valid[:0]
	for _, p := range valid {
		if !reported[p.WorkoutID] {
			kept = append(kept, p)
		}
	}
	return kept, malformed
}

// WithoutMalformed removes dropped entries for workouts already reported as
// malformed, so every excluded workout is listed once
func WithoutMalformed(dropped []DroppedWorkout, malformed []apperrors.RowError) []DroppedWorkout {
	if len(malformed) == 0 {
		return dropped
	}
	bad := make(map[string]bool, len(malformed))
	for _, m := range malformed {
		bad[m.WorkoutID] = true
	}
	kept := dropped[:0]
	for _, d := range dropped {
		if !bad[d.WorkoutID] {
			kept = append(kept, d)
		}
	}
	return kept
}

func malformedRow(workoutID, message string) apperrors.RowError {
	return apperrors.NewRowError(workoutID, apperrors.NewMalformedInputError(workoutID, message))
}

// Merge inner-joins pairs onto workout metadata by workout id and assigns
// each row its identity. Rows keep pair order. Metadata without a usable
// start date is malformed; metadata with no pair and pairs with no metadata
// are dropped.
func Merge(pairs []Pair, metas []domain.WorkoutMeta, assigner *identity.Assigner) ([]domain.Workout, []DroppedWorkout, []apperrors.RowError) {
	metaByID := make(map[string][]domain.WorkoutMeta)
	for _, m := range metas {
		metaByID[m.WorkoutID] = append(metaByID[m.WorkoutID], m)
	}

	var (
		rows      []domain.Workout
		dropped   []DroppedWorkout
		malformed []apperrors.RowError
	)
	paired := make(map[string]bool)
	reported := make(map[string]bool)

	for _, p := range pairs {
		paired[p.WorkoutID] = true
		candidates, ok := metaByID[p.WorkoutID]
		if !ok {
			if !reported[p.WorkoutID] {
				reported[p.WorkoutID] = true
				dropped = append(dropped, DroppedWorkout{WorkoutID: p.WorkoutID, Reason: ReasonNoMetadata})
			}
			continue
		}

		for _, m := range candidates {
			if m.StartRaw == "" {
				if !reported[p.WorkoutID] {
					reported[p.WorkoutID] = true
					malformed = append(malformed, malformedRow(p.WorkoutID, "unparseable workout start date"))
				}
				continue
			}
			rows = append(rows, domain.Workout{
				UUID:            assigner.Assign(m.StartRaw).String(),
				WorkoutID:       p.WorkoutID,
				StartDatetime:   p.Start.Timestamp,
				StartLatitude:   p.Start.Latitude,
				StartLongitude:  p.Start.Longitude,
				FinishDatetime:  p.Finish.Timestamp,
				FinishLatitude:  p.Finish.Latitude,
				FinishLongitude: p.Finish.Longitude,
				ElapsedHours:    p.ElapsedHours,
				TotalDistanceKm: m.DistanceKm(),
				Meta:            m,
			})
		}
	}

	for _, m := range metas {
		if !paired[m.WorkoutID] && !reported[m.WorkoutID] {
			reported[m.WorkoutID] = true
			dropped = append(dropped, DroppedWorkout{WorkoutID: m.WorkoutID, Reason: ReasonNoPoints})
		}
	}
	sortDropped(dropped)

	return rows, dropped, malformed
}

// Normalize converts every start datetime to loc. Finish datetimes keep the
// offset they were recorded with.
func Normalize(rows []domain.Workout, loc *time.Location) {
	for i := range rows {
		rows[i].StartDatetime = rows[i].StartDatetime.In(loc)
	}
}

// Dedupe keeps the first row of every identity and returns how many rows it removed
func Dedupe(rows []domain.Workout) ([]domain.Workout, int) {
	seen := make(map[string]bool, len(rows))
	kept := make([]domain.Workout, 0, len(rows))
	for _, r := range rows {
		if seen[r.UUID] {
			continue
		}
		seen[r.UUID] = true
		kept = append(kept, r)
	}
	return kept, len(rows) - len(kept)
}

// SortRows orders rows by start datetime, then identity
func SortRows(rows []domain.Workout) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].StartDatetime, rows[j].StartDatetime
		if !a.Equal(b) {
			return a.Before(b)
		}
		return rows[i].UUID < rows[j].UUID
	})
}
