package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"walkcli/internal/shared/testutil"
	"walkcli/pkg/contracts/domain"
)

func sampleWorkout() domain.Workout {
	sydney := time.FixedZone("AEST", 10*3600)
	return domain.Workout{
		UUID:            "3f1c0f0e-8a59-5c57-9a34-2bd2a52b1c64",
		WorkoutID:       "x",
		StartDatetime:   time.Date(2024, 5, 1, 20, 0, 0, 0, sydney),
		StartLatitude:   -33.86,
		StartLongitude:  151.2,
		FinishDatetime:  time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC),
		FinishLatitude:  -33.87,
		FinishLongitude: 151.21,
		ElapsedHours:    1.0 / 6.0,
		StartLocation:   &domain.Location{Locality: "Sydney", Region: "New South Wales", Country: "AU"},
		TotalDistanceKm: 1.2,
		Meta: domain.WorkoutMeta{
			WorkoutID:             "x",
			ActivityType:          "HKWorkoutActivityTypeWalking",
			Duration:              10,
			DurationUnit:          "min",
			TotalDistance:         1.2,
			TotalDistanceUnit:     "km",
			TotalEnergyBurned:     55,
			TotalEnergyBurnedUnit: "kcal",
			SourceName:            "Apple Watch",
			StartDate:             time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			EndDate:               time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC),
		},
	}
}

func TestSummaryColumns(t *testing.T) {
	without := SummaryColumns(false)
	with := SummaryColumns(true)

	assert.NotContains(t, without, "start_location")
	assert.NotContains(t, without, "finish_location")
	assert.Contains(t, with, "start_location")
	assert.Contains(t, with, "finish_location")
	assert.Len(t, with, len(without)+2)
	assert.Equal(t, "uuid", with[0])
	assert.Contains(t, with, "totaldistance_km")
	assert.Contains(t, with, "elapsed_time_hours")
}

func TestSummaryRowMatchesColumns(t *testing.T) {
	for _, include := range []bool{false, true} {
		assert.Len(t, SummaryRow(sampleWorkout(), include), len(SummaryColumns(include)))
	}
}

func TestSummaryWriterCSV(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	writer := NewSummaryWriter(logger)
	path := filepath.Join(t.TempDir(), "workouts_summary.csv")

	require.NoError(t, writer.Write(path, []domain.Workout{sampleWorkout()}, true))

	records := readCSV(t, path)
	require.Len(t, records, 2)
	header, row := records[0], records[1]

	cell := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %s missing", name)
		return ""
	}

	assert.Equal(t, "x", cell("workout_id"))
	assert.Equal(t, "2024-05-01 20:00:00", cell("start_datetime"))
	assert.Equal(t, "2024-05-01 10:10:00", cell("finish_datetime"))
	assert.Equal(t, "0.16666666666666666", cell("elapsed_time_hours"))
	assert.Equal(t, "Sydney, New South Wales, AU", cell("start_location"))
	assert.Equal(t, "", cell("finish_location"), "failed lookup leaves the cell empty")
	assert.Equal(t, "1.2", cell("totaldistance_km"))
	assert.Equal(t, "2024-05-01 10:00:00", cell("start_date"))
}

func TestSummaryWriterCSVWithoutLocation(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "workouts_summary.csv")

	require.NoError(t, NewSummaryWriter(logger).Write(path, []domain.Workout{sampleWorkout()}, false))

	records := readCSV(t, path)
	assert.Equal(t, SummaryColumns(false), records[0])
	assert.NotContains(t, records[0], "start_location")
}

func TestSummaryWriterXLSX(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "workouts_summary.xlsx")

	require.NoError(t, NewSummaryWriter(logger).Write(path, []domain.Workout{sampleWorkout()}, false))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, SummaryColumns(false), rows[0])
	assert.Equal(t, "x", rows[1][1])
	assert.Equal(t, "2024-05-01 20:00:00", rows[1][2])
}

func TestIsXLSX(t *testing.T) {
	assert.True(t, IsXLSX("a/b/summary.xlsx"))
	assert.True(t, IsXLSX("SUMMARY.XLSX"))
	assert.False(t, IsXLSX("summary.csv"))
	assert.False(t, IsXLSX("summary"))
}
