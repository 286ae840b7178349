package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walkcli/internal/shared/testutil"
)

func setupManager(t *testing.T) (*Manager, string) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewManager(logger), t.TempDir()
}

func TestFileExists(t *testing.T) {
	manager, tmpDir := setupManager(t)

	file := filepath.Join(tmpDir, "export.zip")
	require.NoError(t, os.WriteFile(file, []byte("zip"), 0644))

	assert.True(t, manager.FileExists(file))
	assert.False(t, manager.FileExists(filepath.Join(tmpDir, "missing.zip")))
	assert.False(t, manager.FileExists(tmpDir), "directories are not files")
}

func TestRemoveIfExists(t *testing.T) {
	manager, tmpDir := setupManager(t)
	file := filepath.Join(tmpDir, "healthkit_db.sqlite")
	require.NoError(t, os.WriteFile(file, []byte("stale"), 0644))

	removed, err := manager.RemoveIfExists(file)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.NoFileExists(t, file)

	removed, err = manager.RemoveIfExists(file)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDatedName(t *testing.T) {
	tests := []struct {
		path     string
		stamp    string
		expected string
	}{
		{"/data/export.zip", "2024_05_01", "/data/export_2024_05_01.zip"},
		{"/data/healthkit_db.sqlite", "2024_05_01", "/data/healthkit_db_2024_05_01.sqlite"},
		{"export", "2024_05_01", "export_2024_05_01"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, DatedName(tt.path, tt.stamp))
		})
	}
}

func TestUniquePath(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "healthkit_db_2024_05_01.sqlite")

	assert.Equal(t, target, UniquePath(target))

	require.NoError(t, os.WriteFile(target, []byte("first"), 0644))
	second := UniquePath(target)
	assert.Equal(t, filepath.Join(tmpDir, "healthkit_db_2024_05_01_1.sqlite"), second)

	require.NoError(t, os.WriteFile(second, []byte("second"), 0644))
	assert.Equal(t, filepath.Join(tmpDir, "healthkit_db_2024_05_01_2.sqlite"), UniquePath(target))
}

func TestMoveFile(t *testing.T) {
	t.Run("moves into new directory", func(t *testing.T) {
		manager, tmpDir := setupManager(t)
		src := filepath.Join(tmpDir, "export.zip")
		dst := filepath.Join(tmpDir, "archive", "export_2024_05_01.zip")
		require.NoError(t, os.WriteFile(src, []byte("zip content"), 0644))

		require.NoError(t, manager.MoveFile(src, dst))

		assert.NoFileExists(t, src)
		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "zip content", string(content))
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		manager, tmpDir := setupManager(t)
		src := filepath.Join(tmpDir, "healthkit_db.sqlite")
		dst := filepath.Join(tmpDir, "healthkit_db_2024_05_01.sqlite")
		require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
		require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

		err := manager.MoveFile(src, dst)
		require.Error(t, err)

		content, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "old", string(content))
		assert.FileExists(t, src)
	})

	t.Run("missing source", func(t *testing.T) {
		manager, tmpDir := setupManager(t)
		err := manager.MoveFile(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "dst"))
		assert.Error(t, err)
	})
}

func TestCopyFile(t *testing.T) {
	manager, tmpDir := setupManager(t)
	src := filepath.Join(tmpDir, "a.csv")
	dst := filepath.Join(tmpDir, "b.csv")
	require.NoError(t, os.WriteFile(src, []byte("x,y\n"), 0644))

	require.NoError(t, manager.CopyFile(src, dst))
	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(content))

	assert.Error(t, manager.CopyFile(src, dst), "existing destination is not replaced")
}
