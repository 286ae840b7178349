package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/shared/testutil"
	"walkcli/internal/summary"
	"walkcli/pkg/contracts/domain"
)

type cliEnv struct {
	dir string
}

// newCLIEnv isolates a run in a temp directory that copies archives with cp
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("WALK_PATHS_BASE_DIR", dir)
	t.Setenv("WALK_CONVERTER_COMMAND", "cp")
	t.Setenv("WALK_LOGGING_LEVEL", "error")
	return &cliEnv{dir: dir}
}

func (e *cliEnv) run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeExport writes a raw database disguised as an export archive, so cp acts as the converter
func (e *cliEnv) writeExport(t *testing.T, name string) string {
	t.Helper()
	fixture := testutil.NewHealthKitDB(t, e.dir, name)
	fixture.
		AddWorkout(testutil.Walk("x", "2024-05-01 10:00:00 +0000", "2024-05-01 10:10:00 +0000", 1.2)).
		AddWorkout(testutil.Walk("y", "2024-05-02 07:00:00 +0000", "2024-05-02 07:20:00 +0000", 2.0)).
		AddPoint("x", "2024-05-01 10:00:00 +0000", -33.8600, 151.2000).
		AddPoint("x", "2024-05-01 10:05:00 +0000", -33.8650, 151.2050).
		AddPoint("x", "2024-05-01 10:10:00 +0000", -33.8700, 151.2100).
		AddPoint("y", "2024-05-02 07:00:00 +0000", -33.9000, 151.2500)
	fixture.Close()
	return fixture.Path
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestVersionCommand(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "walkcli v"))
}

func TestConvertAndSummarize(t *testing.T) {
	env := newCLIEnv(t)
	archive := env.writeExport(t, "export.zip")

	stdout, stderr, err := env.run("convert", archive, "--summarize", "--report")
	require.NoError(t, err)

	out := lines(stdout)
	require.Len(t, out, 2)
	assert.Regexp(t, `healthkit_db_\d{4}_\d{2}_\d{2}\.sqlite$`, out[0])
	assert.Equal(t, filepath.Join(env.dir, "data", "workouts_summary.csv"), out[1])
	assert.FileExists(t, out[0])
	assert.FileExists(t, out[1])
	assert.NoFileExists(t, archive)

	assert.Contains(t, stderr, "Archive moved to")
	assert.Contains(t, stderr, "rows written")
	assert.Contains(t, stderr, "zero elapsed time")

	latest, _, err := env.run("latest")
	require.NoError(t, err)
	assert.Equal(t, out[0], strings.TrimSpace(latest))
}

func TestConvertSummarizeIncludeLocationFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "configured default applies", args: nil, wantErr: true},
		{name: "flag overrides configuration", args: []string{"--include-location=false"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newCLIEnv(t)
			t.Setenv("WALK_SUMMARY_INCLUDE_LOCATION", "true")
			archive := env.writeExport(t, "export.zip")

			args := append([]string{"convert", archive, "--summarize"}, tt.args...)
			stdout, _, err := env.run(args...)

			// the conversion itself always succeeds
			assert.Regexp(t, `healthkit_db_\d{4}_\d{2}_\d{2}\.sqlite`, lines(stdout)[0])
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
				assert.Contains(t, err.Error(), "GeoNames cities file")
				assert.NoFileExists(t, filepath.Join(env.dir, "data", "workouts_summary.csv"))
				return
			}
			require.NoError(t, err)
			assert.FileExists(t, filepath.Join(env.dir, "data", "workouts_summary.csv"))
		})
	}
}

func TestConvertTwiceKeepsBothDatabases(t *testing.T) {
	env := newCLIEnv(t)

	first, _, err := env.run("convert", env.writeExport(t, "export.zip"))
	require.NoError(t, err)
	second, _, err := env.run("convert", env.writeExport(t, "export.zip"))
	require.NoError(t, err)

	assert.NotEqual(t, strings.TrimSpace(first), strings.TrimSpace(second))
	assert.FileExists(t, strings.TrimSpace(first))
	assert.FileExists(t, strings.TrimSpace(second))
}

func TestConvertMissingArchive(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("convert", filepath.Join(env.dir, "missing.zip"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitNotFound, apperrors.ExitCode(err))
}

func TestSummarizeWithoutWalks(t *testing.T) {
	env := newCLIEnv(t)
	fixture := testutil.NewHealthKitDB(t, env.dir, "runs.sqlite")
	run := testutil.Walk("r", "2024-05-01 10:00:00 +0000", "2024-05-01 10:10:00 +0000", 2)
	run.ActivityType = "HKWorkoutActivityTypeRunning"
	fixture.AddWorkout(run)
	fixture.Close()

	stdout, stderr, err := env.run("summarize", "--db", fixture.Path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoResult))
	assert.Equal(t, apperrors.ExitNoResult, apperrors.ExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No summary written")
}

func TestSummarizeWorkbook(t *testing.T) {
	env := newCLIEnv(t)
	db := env.writeExport(t, "healthkit_db_2024_05_01.sqlite")
	out := filepath.Join(env.dir, "summary.xlsx")

	stdout, _, err := env.run("summarize", "--db", db, "--out", out)
	require.NoError(t, err)
	assert.Equal(t, out, strings.TrimSpace(stdout))
	assert.FileExists(t, out)
}

func TestLatestWithoutDatabases(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run("latest")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestRouteCommand(t *testing.T) {
	env := newCLIEnv(t)
	db := env.writeExport(t, "healthkit_db_2024_05_01.sqlite")

	stdout, _, err := env.run("route", "x", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Workout x")
	assert.Contains(t, stdout, "2024-05-01 10:05:00")

	out := filepath.Join(env.dir, "route.csv")
	stdout, _, err = env.run("route", "x", "--db", db, "--out", out)
	require.NoError(t, err)
	assert.Equal(t, out, strings.TrimSpace(stdout))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, lines(string(data)), 4)
}

func TestRenderReport(t *testing.T) {
	report := &summary.Report{
		Database:        "raw.sqlite",
		Loaded:          1200,
		Written:         1100,
		IncludeLocation: true,
		Dropped:         []summary.DroppedWorkout{{WorkoutID: "y", Reason: summary.ReasonNoFinish}},
		Malformed: []apperrors.RowError{
			{WorkoutID: "z", Type: apperrors.ErrTypeMalformedInput, Message: "negative elapsed time"},
		},
		Stages: []summary.StageTiming{{Stage: "load", Duration: 1500 * time.Microsecond}},
	}

	var buf bytes.Buffer
	renderReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "enrichment failures")
	assert.Contains(t, out, "stage load")
	assert.Contains(t, out, "negative elapsed time")
	assert.Contains(t, out, summary.ReasonNoFinish)
}

func TestRenderRoute(t *testing.T) {
	route := []domain.RoutePoint{
		{Latitude: -33.86, Longitude: 151.2, Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{Latitude: -33.87, Longitude: 151.21, Timestamp: time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	renderRoute(&buf, "x", route)

	assert.Contains(t, buf.String(), "2024-05-01 10:10:00")
	assert.Contains(t, buf.String(), "Samples")
}
