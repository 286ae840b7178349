package errors

import (
	"errors"
	"fmt"
	"io"
)

// Exit codes reported by the command line tools
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitNotFound     = 2
	ExitExternalTool = 3
	ExitConfig       = 4
	ExitNoResult     = 5
)

// ErrNoResult marks a run that finished without producing an artifact
var ErrNoResult = errors.New("no result")

// ExitCode maps an error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrNoResult) {
		return ExitNoResult
	}

	switch TypeOf(err) {
	case ErrTypeNotFound:
		return ExitNotFound
	case ErrTypeExternalTool:
		return ExitExternalTool
	case ErrTypeConfig, ErrTypeValidation:
		return ExitConfig
	default:
		return ExitFailure
	}
}

// RowError records one row-level problem that was excluded from a build
type RowError struct {
	WorkoutID string    `json:"workout_id"`
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
}

// NewRowError converts an AppError into a RowError
func NewRowError(workoutID string, err *AppError) RowError {
	return RowError{
		WorkoutID: workoutID,
		Type:      err.Type,
		Message:   err.Message,
	}
}

// WriteError writes a one-line error report for the user
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
