package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records the resource footprint of one run
type RuntimeMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryUsage     metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	gcCount         metric.Int64Gauge
	runDuration     metric.Float64Gauge
}

// RuntimeStats holds the values recorded by Collect
type RuntimeStats struct {
	GoRoutines      int64
	MemoryUsage     int64
	MemoryAllocated int64
	MemorySystem    int64
	GCCount         uint32
	RunDuration     time.Duration
	Timestamp       time.Time
}

// NewRuntimeMetrics creates the runtime gauges on the given meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"walk_run_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"),
	)
	if err != nil {
		return nil, err
	}

	memoryUsage, err := meter.Int64Gauge(
		"walk_run_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"walk_run_memory_allocated_bytes",
		metric.WithDescription("Cumulative heap bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"walk_run_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"walk_run_gc_count",
		metric.WithDescription("Garbage collections completed during the run"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"walk_run_duration_seconds",
		metric.WithDescription("Wall time from telemetry start to collection"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goRoutines:      goRoutines,
		memoryUsage:     memoryUsage,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		gcCount:         gcCount,
		runDuration:     runDuration,
	}, nil
}

// Collect reads the Go runtime statistics and records them
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryUsage:     int64(memStats.Alloc),
		MemoryAllocated: int64(memStats.TotalAlloc),
		MemorySystem:    int64(memStats.Sys),
		GCCount:         memStats.NumGC,
		RunDuration:     time.Since(startTime),
		Timestamp:       time.Now(),
	}

	rm.goRoutines.Record(ctx, stats.GoRoutines)
	rm.memoryUsage.Record(ctx, stats.MemoryUsage)
	rm.memoryAllocated.Record(ctx, stats.MemoryAllocated)
	rm.memorySystem.Record(ctx, stats.MemorySystem)
	rm.gcCount.Record(ctx, int64(stats.GCCount))
	rm.runDuration.Record(ctx, stats.RunDuration.Seconds())

	return stats
}

// FormatStats returns the stats as log-friendly values
func (stats *RuntimeStats) FormatStats() map[string]interface{} {
	return map[string]interface{}{
		"goroutines":          stats.GoRoutines,
		"memory_usage_mb":     float64(stats.MemoryUsage) / 1024 / 1024,
		"memory_allocated_mb": float64(stats.MemoryAllocated) / 1024 / 1024,
		"memory_system_mb":    float64(stats.MemorySystem) / 1024 / 1024,
		"gc_count":            stats.GCCount,
		"run_duration_s":      stats.RunDuration.Seconds(),
	}
}
