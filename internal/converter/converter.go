// Package converter turns a vendor export archive into a dated raw database.
//
// Convert checks the archive exists, deletes any stale working database,
// runs the external tool, and then renames the produced database and the
// archive to carry a date stamp taken from the archive's creation time.
// Dated names never overwrite an earlier file; a numeric suffix is added
// instead. A failed conversion, including a failed rename, leaves the archive where it
// was and the database under its working name.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "walkcli/internal/errors"
	"walkcli/internal/files"
	"walkcli/internal/infrastructure"
)

// Options configures a conversion Service
type Options struct {
	Tool            Tool
	DataDir         string
	WorkingDatabase string
	DateLayout      string
	Logger          *slog.Logger
}

// Result describes one successful conversion
type Result struct {
	DatabasePath string
	ArchivePath  string
	DateStamp    string
	Output       string
	Duration     time.Duration
}

// Service runs archive conversions
type Service struct {
	tool            Tool
	manager         *files.Manager
	dataDir         string
	workingDatabase string
	dateLayout      string
	logger          *slog.Logger
	// move renames files; replaced in tests to simulate rename failures
	move func(src, dst string) error
}

// NewService creates a conversion service
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	layout := opts.DateLayout
	if layout == "" {
		layout = "2006_01_02"
	}
	workingDatabase := opts.WorkingDatabase
	if !filepath.IsAbs(workingDatabase) {
		workingDatabase = filepath.Join(opts.DataDir, workingDatabase)
	}

	manager := files.NewManager(logger)
	return &Service{
		tool:            opts.Tool,
		manager:         manager,
		dataDir:         opts.DataDir,
		workingDatabase: workingDatabase,
		dateLayout:      layout,
		logger:          infrastructure.WithComponent(logger, "converter"),
		move:            manager.MoveFile,
	}
}

// DateStamp renders the creation time of path with the service's layout in local time
func (s *Service) DateStamp(path string) (string, error) {
	created, err := files.CreationTime(path)
	if err != nil {
		return "", err
	}
	return created.Local().Format(s.dateLayout), nil
}

// Convert converts archivePath and returns the dated database and archive paths
func (s *Service) Convert(ctx context.Context, archivePath string) (*Result, error) {
	start := time.Now()

	if !s.manager.FileExists(archivePath) {
		s.logger.WarnContext(ctx, "Export archive not found", slog.String("path", archivePath))
		return nil, apperrors.NewNotFoundError("export archive", archivePath)
	}

	stamp, err := s.DateStamp(archivePath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read archive creation time", err).
			WithContext("path", archivePath)
	}

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create data directory", err).
			WithContext("path", s.dataDir)
	}

	if _, err := s.manager.RemoveIfExists(s.workingDatabase); err != nil {
		return nil, apperrors.NewStorageError("failed to delete stale working database", err).
			WithContext("path", s.workingDatabase)
	}

	s.logger.InfoContext(ctx, "Converting export archive",
		slog.String("archive", archivePath),
		slog.String("database", s.workingDatabase),
		slog.String("date_stamp", stamp))

	output, err := s.tool.Convert(ctx, archivePath, s.workingDatabase)
	if err != nil {
		infrastructure.WithError(s.logger, err).ErrorContext(ctx, "Conversion tool failed",
			slog.String("output", output))
		return nil, apperrors.NewExternalToolError("conversion tool failed", err).
			WithContext("archive", archivePath).
			WithContext("output", output)
	}

	if !s.manager.FileExists(s.workingDatabase) {
		return nil, apperrors.NewExternalToolError(
			fmt.Sprintf("conversion tool produced no database at %s", s.workingDatabase), nil).
			WithContext("archive", archivePath).
			WithContext("output", output)
	}

	// Database first; a failed archive rename restores the working name.
	dbDst := files.UniquePath(filepath.Join(s.dataDir, files.DatedName(filepath.Base(s.workingDatabase), stamp)))
	if err := s.move(s.workingDatabase, dbDst); err != nil {
		return nil, apperrors.NewStorageError("failed to rename converted database", err).
			WithContext("path", s.workingDatabase)
	}

	archiveDst := files.UniquePath(files.DatedName(archivePath, stamp))
	if err := s.move(archivePath, archiveDst); err != nil {
		if rbErr := s.move(dbDst, s.workingDatabase); rbErr != nil {
			infrastructure.WithError(s.logger, rbErr).ErrorContext(ctx, "Failed to restore working database",
				slog.String("path", dbDst))
		}
		return nil, apperrors.NewStorageError("failed to rename export archive", err).
			WithContext("path", archivePath)
	}

	result := &Result{
		DatabasePath: dbDst,
		ArchivePath:  archiveDst,
		DateStamp:    stamp,
		Output:       output,
		Duration:     time.Since(start),
	}

	s.logger.InfoContext(ctx, "Conversion completed",
		slog.String("database", result.DatabasePath),
		slog.String("archive", result.ArchivePath),
		slog.Duration("duration", result.Duration))

	return result, nil
}
