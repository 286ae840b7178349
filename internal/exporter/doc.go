// Package exporter writes the canonical workout summary and route tracks.
//
// CSVWriter handles plain and streaming CSV output. XLSXWriter writes
// single-sheet workbooks with excelize. SummaryWriter picks between them
// from the artifact's extension and always replaces the previous artifact.
//
// Location columns are written for every row or for none, depending on
// whether the build enriched locations.
//
// Example usage:
//
//	w := exporter.NewSummaryWriter(logger)
//	err := w.Write("data/workouts_summary.csv", workouts, true)
package exporter
