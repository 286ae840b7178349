package extract

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed sql/*.sql
var embeddedQueries embed.FS

// Query template file names
const (
	WorkoutsQueryFile    = "select_star_walking_workouts.sql"
	StartPointQueryFile  = "select_start_point_workout.sql"
	FinishPointQueryFile = "select_finish_point_workout.sql"
	RouteQueryFile       = "select_route_workout.sql"
)

const (
	embeddedQuerySource = "embedded"
	embeddedQueryDir    = "sql"
)

// Queries holds the SQL templates used against the raw database.
// Templates bind :activity_type or :workout_id by name.
type Queries struct {
	Workouts     string
	StartPoints  string
	FinishPoints string
	Route        string
	// Sources maps each template file to where it was loaded from
	Sources map[string]string
}

// LoadQueries loads every template from dir when present there, falling back
// to the built-in copy. An empty dir uses the built-in templates only.
func LoadQueries(dir string) (*Queries, error) {
	q := &Queries{Sources: make(map[string]string)}

	targets := []struct {
		file string
		dst  *string
	}{
		{WorkoutsQueryFile, &q.Workouts},
		{StartPointQueryFile, &q.StartPoints},
		{FinishPointQueryFile, &q.FinishPoints},
		{RouteQueryFile, &q.Route},
	}

	for _, target := range targets {
		text, source, err := loadQuery(dir, target.file)
		if err != nil {
			return nil, err
		}
		*target.dst = text
		q.Sources[target.file] = source
	}

	return q, nil
}

func loadQuery(dir, file string) (string, string, error) {
	if dir != "" {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !os.IsNotExist(err) {
			return "", "", fmt.Errorf("failed to read query %s: %w", path, err)
		}
	}

	data, err := embeddedQueries.ReadFile(embeddedQueryDir + "/" + file)
	if err != nil {
		return "", "", fmt.Errorf("failed to read built-in query %s: %w", file, err)
	}
	return string(data), embeddedQuerySource, nil
}
