package converter

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/shared/testutil"
)

// fakeTool records calls and writes content to the database path
type fakeTool struct {
	calls      int
	content    string
	output     string
	err        error
	skipWrite  bool
	sawStaleDB bool
}

func (f *fakeTool) Convert(_ context.Context, archivePath, dbPath string) (string, error) {
	f.calls++
	if _, err := os.Stat(dbPath); err == nil {
		f.sawStaleDB = true
	}
	if f.err != nil {
		return f.output, f.err
	}
	if !f.skipWrite {
		if err := os.WriteFile(dbPath, []byte(f.content), 0644); err != nil {
			return "", err
		}
	}
	return f.output, nil
}

type testEnv struct {
	root    string
	dataDir string
	archive string
	tool    *fakeTool
	service *Service
	logs    *testutil.BufferedSlogHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		root:    root,
		dataDir: filepath.Join(root, "data"),
		archive: filepath.Join(root, "export.zip"),
		tool:    &fakeTool{content: "sqlite", output: "converted"},
	}
	logger, logs := testutil.NewTestLogger(t)
	env.logs = logs
	env.service = NewService(Options{
		Tool:            env.tool,
		DataDir:         env.dataDir,
		WorkingDatabase: "healthkit_db.sqlite",
		DateLayout:      "2006_01_02",
		Logger:          logger,
	})
	return env
}

func (e *testEnv) writeArchive(t *testing.T) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.archive, []byte("zip"), 0644))
}

func TestConvertMissingArchive(t *testing.T) {
	env := setupTestEnv(t)

	result, err := env.service.Convert(context.Background(), env.archive)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	assert.Contains(t, err.Error(), env.archive)
	assert.Equal(t, 0, env.tool.calls, "tool must not run")
	assert.NoDirExists(t, env.dataDir, "no filesystem mutation")

	entries, err := os.ReadDir(env.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConvertSuccess(t *testing.T) {
	env := setupTestEnv(t)
	env.writeArchive(t)

	stamp, err := env.service.DateStamp(env.archive)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006_01_02"), stamp)

	result, err := env.service.Convert(context.Background(), env.archive)
	require.NoError(t, err)

	assert.Equal(t, 1, env.tool.calls)
	assert.Equal(t, stamp, result.DateStamp)
	assert.Equal(t, "converted", result.Output)
	assert.Equal(t, filepath.Join(env.dataDir, "healthkit_db_"+stamp+".sqlite"), result.DatabasePath)
	assert.Equal(t, filepath.Join(env.root, "export_"+stamp+".zip"), result.ArchivePath)

	assert.NoFileExists(t, env.archive, "archive is renamed")
	assert.FileExists(t, result.ArchivePath)
	assert.FileExists(t, result.DatabasePath)
	assert.NoFileExists(t, filepath.Join(env.dataDir, "healthkit_db.sqlite"))
}

func TestConvertDeletesStaleWorkingDatabase(t *testing.T) {
	env := setupTestEnv(t)
	env.writeArchive(t)

	require.NoError(t, os.MkdirAll(env.dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.dataDir, "healthkit_db.sqlite"), []byte("partial"), 0644))

	result, err := env.service.Convert(context.Background(), env.archive)
	require.NoError(t, err)

	assert.False(t, env.tool.sawStaleDB)
	content, err := os.ReadFile(result.DatabasePath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", string(content))
}

func TestConvertTwiceKeepsBothDatedDatabases(t *testing.T) {
	env := setupTestEnv(t)

	env.writeArchive(t)
	env.tool.content = "first"
	first, err := env.service.Convert(context.Background(), env.archive)
	require.NoError(t, err)

	env.writeArchive(t)
	env.tool.content = "second"
	second, err := env.service.Convert(context.Background(), env.archive)
	require.NoError(t, err)

	require.Equal(t, first.DateStamp, second.DateStamp)
	assert.NotEqual(t, first.DatabasePath, second.DatabasePath)
	assert.NotEqual(t, first.ArchivePath, second.ArchivePath)
	assert.Equal(t, filepath.Join(env.dataDir, "healthkit_db_"+first.DateStamp+"_1.sqlite"), second.DatabasePath)

	content, err := os.ReadFile(first.DatabasePath)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content), "first dated database is not overwritten")

	content, err = os.ReadFile(second.DatabasePath)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestConvertToolFailure(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		skipWrite bool
	}{
		{name: "non-zero exit", err: errors.New("exit status 1")},
		{name: "missing output file", skipWrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			env.writeArchive(t)
			env.tool.err = tt.err
			env.tool.skipWrite = tt.skipWrite
			env.tool.output = "boom"

			result, err := env.service.Convert(context.Background(), env.archive)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExternalTool))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "boom", appErr.Context["output"])

			assert.FileExists(t, env.archive, "archive untouched on failure")
			if tt.err != nil {
				assert.True(t, env.logs.ContainsAttr("component", "converter"))
				assert.True(t, env.logs.ContainsAttr("error", tt.err.Error()))
			}
		})
	}
}

func TestConvertRenameFailure(t *testing.T) {
	tests := []struct {
		name   string
		failOn func(src string, env *testEnv) bool
	}{
		{
			name:   "database rename fails",
			failOn: func(src string, env *testEnv) bool { return src == env.service.workingDatabase },
		},
		{
			name:   "archive rename fails",
			failOn: func(src string, env *testEnv) bool { return src == env.archive },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			env.writeArchive(t)

			move := env.service.move
			env.service.move = func(src, dst string) error {
				if tt.failOn(src, env) {
					return errors.New("rename: permission denied")
				}
				return move(src, dst)
			}

			result, err := env.service.Convert(context.Background(), env.archive)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))

			assert.FileExists(t, env.archive, "archive keeps its original path")
			assert.FileExists(t, env.service.workingDatabase, "database keeps its working name")
			dated, err := filepath.Glob(filepath.Join(env.dataDir, "healthkit_db_*.sqlite"))
			require.NoError(t, err)
			assert.Empty(t, dated)

			// the next run on the same archive succeeds
			env.service.move = move
			result, err = env.service.Convert(context.Background(), env.archive)
			require.NoError(t, err)
			assert.FileExists(t, result.DatabasePath)
			assert.NoFileExists(t, env.archive)
		})
	}
}

func TestExecTool(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}

	dir := t.TempDir()
	archive := filepath.Join(dir, "export.zip")
	db := filepath.Join(dir, "healthkit_db.sqlite")
	require.NoError(t, os.WriteFile(archive, []byte("payload"), 0644))

	tool := NewExecTool("cp", time.Minute)
	assert.Equal(t, "cp", tool.String())

	_, err := tool.Convert(context.Background(), archive, db)
	require.NoError(t, err)
	content, err := os.ReadFile(db)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	_, err = tool.Convert(context.Background(), filepath.Join(dir, "missing.zip"), db)
	assert.Error(t, err, "non-zero exit is an error")
}

func TestExecToolArgs(t *testing.T) {
	tool := NewExecTool("healthkit-to-sqlite --silent", 0)
	assert.Equal(t, "healthkit-to-sqlite", tool.Command)
	assert.Equal(t, []string{"--silent"}, tool.Args)

	_, err := NewExecTool("", 0).Convert(context.Background(), "a", "b")
	assert.Error(t, err)
}
