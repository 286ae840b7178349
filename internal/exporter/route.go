package exporter

import (
	"fmt"

	"walkcli/pkg/contracts/domain"
)

// RouteColumns is the header of a route export
var RouteColumns = []string{"workout_id", "timestamp", "latitude", "longitude"}

// WriteRoute streams the track of one workout to a CSV file
func (w *CSVWriter) WriteRoute(filePath, workoutID string, route []domain.RoutePoint) error {
	stream, err := w.CreateStreamWriter(filePath, RouteColumns, false)
	if err != nil {
		return err
	}

	for i, p := range route {
		record := []string{workoutID, formatTime(p.Timestamp), formatFloat(p.Latitude), formatFloat(p.Longitude)}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write route point %d: %w", i, err)
		}
	}

	return stream.Close()
}
