package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/infrastructure"
)

// sqliteHeader opens every SQLite 3 database file
var sqliteHeader = []byte("SQLite format 3\x00")

// FileValidator checks the files the pipeline reads and writes before any work starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(what, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("what", what),
			slog.String("file", path))
		return apperrors.NewNotFoundError(what, path)
	}
	if err != nil {
		infrastructure.WithError(v.logger, err).Error("Failed to stat file",
			slog.String("file", path))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat %s", what), err).
			WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		infrastructure.WithError(v.logger, err).Error("File is not readable",
			slog.String("file", path))
		return apperrors.NewStorageError(fmt.Sprintf("%s is not readable", what), err).
			WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDatabase checks that path is a readable SQLite 3 database
func (v *FileValidator) ValidateDatabase(path string) error {
	if err := v.ValidateFile("raw database", path); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError("open raw database", err).WithContext("path", path)
	}
	defer file.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(file, header); err != nil || !bytes.Equal(header, sqliteHeader) {
		v.logger.Error("File is not a SQLite database",
			slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not a SQLite database", path))
	}
	return nil
}

// ValidateOutputPath checks that path has one of the allowed extensions and
// that its directory exists or can be created
func (v *FileValidator) ValidateOutputPath(path string, extensions ...string) error {
	if path == "" {
		return apperrors.NewAppValidationError("output path is required")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if len(extensions) > 0 && !contains(extensions, ext) {
		v.logger.Error("Unsupported output format",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf(
			"unsupported output format %q for %s (want %s)", ext, path, strings.Join(extensions, ", ")))
	}

	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	// Try to create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		infrastructure.WithError(v.logger, err).Error("Failed to create output directory",
			slog.String("directory", dir))
		return apperrors.NewStorageError("failed to create output directory", err).
			WithContext("path", dir)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		infrastructure.WithError(v.logger, err).Error("Output directory is not writable",
			slog.String("directory", dir))
		return apperrors.NewStorageError("output directory is not writable", err).
			WithContext("path", dir)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
