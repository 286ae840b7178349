package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"walkcli/internal/exporter"
	"walkcli/internal/summary"
	"walkcli/pkg/contracts/domain"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

// renderReport prints the build counts followed by every excluded workout
func renderReport(w io.Writer, report *summary.Report) {
	if report == nil {
		return
	}

	counts := newTable(w)
	counts.SetTitle("Summary build")
	counts.AppendHeader(table.Row{"Measure", "Value"})
	counts.AppendRows([]table.Row{
		{"database", report.Database},
		{"workouts loaded", humanize.Comma(int64(report.Loaded))},
		{"rows written", humanize.Comma(int64(report.Written))},
		{"dropped", len(report.Dropped)},
		{"malformed", len(report.Malformed)},
		{"duplicates", report.Duplicates},
		{"identity collisions", len(report.Collisions)},
	})
	if report.IncludeLocation {
		counts.AppendRow(table.Row{"enrichment failures", len(report.EnrichmentFailures)})
	}
	for _, stage := range report.Stages {
		counts.AppendRow(table.Row{"stage " + stage.Stage, formatDuration(stage.Duration)})
	}
	counts.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	counts.Render()

	if len(report.Dropped)+len(report.Malformed)+len(report.EnrichmentFailures) == 0 {
		return
	}

	excluded := newTable(w)
	excluded.SetTitle("Excluded")
	excluded.AppendHeader(table.Row{"Workout", "Kind", "Detail"})
	for _, d := range report.Dropped {
		excluded.AppendRow(table.Row{d.WorkoutID, "dropped", d.Reason})
	}
	for _, m := range report.Malformed {
		excluded.AppendRow(table.Row{m.WorkoutID, "malformed", m.Message})
	}
	for _, e := range report.EnrichmentFailures {
		excluded.AppendRow(table.Row{e.WorkoutID, "location", e.Message})
	}
	excluded.AppendFooter(table.Row{"", "Total", excluded.Length()})
	excluded.Render()
}

// renderRoute prints the samples of one workout
func renderRoute(w io.Writer, workoutID string, route []domain.RoutePoint) {
	tbl := newTable(w)
	tbl.SetTitle(fmt.Sprintf("Workout %s", workoutID))
	tbl.AppendHeader(table.Row{"#", "Timestamp", "Latitude", "Longitude"})
	for i, p := range route {
		tbl.AppendRow(table.Row{i + 1, p.Timestamp.Format(exporter.DatetimeLayout), p.Latitude, p.Longitude})
	}
	tbl.AppendFooter(table.Row{"", "Samples", len(route), ""})
	tbl.Render()
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return d.Round(time.Millisecond).String()
}
