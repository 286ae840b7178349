package exporter

import (
	"strconv"
	"time"
)

// DatetimeLayout renders every timestamp column
const DatetimeLayout = "2006-01-02 15:04:05"

// formatFloat formats a float64 with the shortest representation that round-trips
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTime formats a timestamp in its own location; zero times are empty
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DatetimeLayout)
}

// formatValue renders one typed cell as CSV text
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return formatTime(x)
	default:
		return ""
	}
}

// formatRecord renders a typed row as CSV text
func formatRecord(row []any) []string {
	record := make([]string, len(row))
	for i, v := range row {
		record[i] = formatValue(v)
	}
	return record
}
