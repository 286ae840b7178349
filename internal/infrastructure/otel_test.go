package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walkcli/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gather(t *testing.T, tel *Telemetry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := tel.Registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func family(t *testing.T, families map[string]*dto.MetricFamily, prefix string) *dto.MetricFamily {
	t.Helper()
	for name, f := range families {
		if strings.HasPrefix(name, prefix) {
			return f
		}
	}
	t.Fatalf("no metric family with prefix %q", prefix)
	return nil
}

func counterValue(f *dto.MetricFamily, label, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestInitializeTelemetry(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		wantErr  bool
	}{
		{"no tracing", "none", false},
		{"empty means none", "", false},
		{"stdout tracing", "stdout", false},
		{"unknown exporter", "jaeger", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: tt.exporter}, io.Discard, discardLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tel.Tracer)
			assert.NotNil(t, tel.Metrics)
			assert.NotNil(t, tel.Runtime)
			assert.NotNil(t, tel.Registry)
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestStartStageWritesSpans(t *testing.T) {
	var traces bytes.Buffer
	tel, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "stdout"}, &traces, discardLogger())
	require.NoError(t, err)

	_, end := tel.StartStage(context.Background(), "summary.load")
	end(nil)
	_, end = tel.StartStage(context.Background(), "summary.persist")
	end(errors.New("disk full"))
	require.NoError(t, tel.Shutdown(context.Background()))

	out := traces.String()
	assert.Contains(t, out, "summary.load")
	assert.Contains(t, out, "summary.persist")
	assert.Contains(t, out, "disk full")
}

func TestPipelineMetrics(t *testing.T) {
	tel := NewNoopTelemetry()
	ctx := context.Background()

	tel.Metrics.RecordConversion(ctx, "success", 2*time.Second)
	tel.Metrics.RecordConversion(ctx, "not_found", 0)
	tel.Metrics.RecordBuild(ctx, "produced")
	tel.Metrics.AddRows(ctx, "loaded", 3)
	tel.Metrics.AddRows(ctx, "dropped", 0)
	tel.Metrics.AddEnrichmentFailure(ctx)
	_, end := tel.StartStage(ctx, "convert")
	end(nil)

	families := gather(t, tel)

	conversions := family(t, families, "walk_conversions")
	assert.Equal(t, 1.0, counterValue(conversions, "outcome", "success"))
	assert.Equal(t, 1.0, counterValue(conversions, "outcome", "not_found"))

	rows := family(t, families, "walk_summary_rows")
	assert.Equal(t, 3.0, counterValue(rows, "kind", "loaded"))
	assert.Equal(t, 0.0, counterValue(rows, "kind", "dropped"))

	assert.Equal(t, 1.0, counterValue(family(t, families, "walk_summary_builds"), "outcome", "produced"))
	family(t, families, "walk_stage_duration")
	family(t, families, "walk_enrichment_failures")
}

func TestWriteMetrics(t *testing.T) {
	tel := NewNoopTelemetry()
	tel.Metrics.RecordBuild(context.Background(), "no_result")

	require.NoError(t, tel.WriteMetrics(""))

	path := filepath.Join(t.TempDir(), "metrics", "walkcli.prom")
	require.NoError(t, tel.WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "walk_summary_builds")
	assert.Contains(t, string(data), "walk_run_memory_usage_bytes")
}

func TestCollectRuntime(t *testing.T) {
	tel := NewNoopTelemetry()

	stats := tel.CollectRuntime(context.Background())
	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.MemorySystem)
	assert.GreaterOrEqual(t, stats.RunDuration, time.Duration(0))

	formatted := stats.FormatStats()
	assert.Contains(t, formatted, "goroutines")
	assert.Contains(t, formatted, "memory_usage_mb")

	family(t, gather(t, tel), "walk_run_goroutines")
}
