package exporter

import (
	"log/slog"
	"path/filepath"
	"strings"

	"walkcli/internal/infrastructure"
	"walkcli/pkg/contracts/domain"
)

// SummarySheet names the worksheet of an XLSX summary
const SummarySheet = "workouts"

var (
	leadingColumns = []string{
		"uuid", "workout_id",
		"start_datetime", "start_latitude", "start_longitude",
		"finish_datetime", "finish_latitude", "finish_longitude",
		"elapsed_time_hours",
	}
	locationColumns = []string{"start_location", "finish_location"}
	metaColumns     = []string{
		"activity_type", "duration", "duration_unit", "totaldistance_km",
		"total_energy_burned", "total_energy_burned_unit", "source_name",
		"start_date", "end_date",
	}
)

// SummaryColumns returns the summary header; location columns only when included
func SummaryColumns(includeLocation bool) []string {
	cols := make([]string, 0, len(leadingColumns)+len(locationColumns)+len(metaColumns))
	cols = append(cols, leadingColumns...)
	if includeLocation {
		cols = append(cols, locationColumns...)
	}
	return append(cols, metaColumns...)
}

// SummaryRow returns the typed cells of one workout in SummaryColumns order
func SummaryRow(w domain.Workout, includeLocation bool) []any {
	row := []any{
		w.UUID, w.WorkoutID,
		w.StartDatetime, w.StartLatitude, w.StartLongitude,
		w.FinishDatetime, w.FinishLatitude, w.FinishLongitude,
		w.ElapsedHours,
	}
	if includeLocation {
		row = append(row, locationText(w.StartLocation), locationText(w.FinishLocation))
	}
	return append(row,
		w.Meta.ActivityType, w.Meta.Duration, w.Meta.DurationUnit, w.TotalDistanceKm,
		w.Meta.TotalEnergyBurned, w.Meta.TotalEnergyBurnedUnit, w.Meta.SourceName,
		w.Meta.StartDate, w.Meta.EndDate,
	)
}

func locationText(l *domain.Location) string {
	if l == nil {
		return ""
	}
	return l.String()
}

// SummaryWriter persists the canonical summary as CSV or XLSX by file extension
type SummaryWriter struct {
	csv    *CSVWriter
	xlsx   *XLSXWriter
	logger *slog.Logger
}

// NewSummaryWriter creates a summary writer
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	logger = infrastructure.WithComponent(logger, "exporter")
	return &SummaryWriter{
		csv:    NewCSVWriter(logger),
		xlsx:   NewXLSXWriter(logger),
		logger: logger,
	}
}

// IsXLSX reports whether path names a workbook
func IsXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// Write replaces the artifact at path with workouts in the given order
func (s *SummaryWriter) Write(path string, workouts []domain.Workout, includeLocation bool) error {
	headers := SummaryColumns(includeLocation)

	if IsXLSX(path) {
		rows := make([][]any, len(workouts))
		for i, w := range workouts {
			rows[i] = SummaryRow(w, includeLocation)
		}
		return s.xlsx.Write(path, SummarySheet, headers, rows)
	}

	records := make([][]string, len(workouts))
	for i, w := range workouts {
		records[i] = formatRecord(SummaryRow(w, includeLocation))
	}
	return s.csv.WriteCSV(path, WriteOptions{Headers: headers, Records: records})
}
