package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/djherbis/times"

	apperrors "walkcli/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	CreatedAt time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// CreationTime returns the best available creation time of a file.
// Birth time is used when the platform records it, then status change time,
// then modification time.
func CreationTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	if ts.HasBirthTime() {
		return ts.BirthTime(), nil
	}
	if ts.HasChangeTime() {
		return ts.ChangeTime(), nil
	}
	return ts.ModTime(), nil
}

// FindFilesByPattern finds regular files matching a glob pattern, oldest first
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)
	searchPattern := filepath.Join(fullPath, pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}

		created, err := CreationTime(match)
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:      match,
			Name:      filepath.Base(match),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			CreatedAt: created,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].Name < files[j].Name
		}
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})

	return files, nil
}

// LatestDatabase returns the matching file with the greatest creation time
// together with the number of files that matched.
// No match is reported as a NOT_FOUND error naming the searched pattern.
func (d *Discovery) LatestDatabase(dir, pattern string) (FileInfo, int, error) {
	files, err := d.FindFilesByPattern(dir, pattern)
	if err != nil {
		return FileInfo{}, 0, err
	}

	latest, ok := GetLatestFile(files)
	if !ok {
		return FileInfo{}, 0, apperrors.NewNotFoundError("no files matching pattern", filepath.Join(d.resolve(dir), pattern))
	}
	return latest, len(files), nil
}

// GetLatestFile returns the file created most recently.
// Ties go to the lexically greatest name, which for dated names is the newest stamp.
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.CreatedAt.After(latest.CreatedAt) ||
			(file.CreatedAt.Equal(latest.CreatedAt) && file.Name > latest.Name) {
			latest = file
		}
	}

	return latest, true
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
