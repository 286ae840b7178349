package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"walkcli/internal/config"
)

const (
	ServiceName = "walkcli"
	MeterName   = "walkcli"
)

// Telemetry holds the tracer and the pipeline metrics of one process run
type Telemetry struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	Metrics  *PipelineMetrics
	Runtime  *RuntimeMetrics
	Registry *prometheus.Registry

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	started        time.Time
	logger         *slog.Logger
}

// InitializeTelemetry sets up tracing and metrics.
// Metrics always go to a private Prometheus registry; traces go to traceOut
// when the stdout exporter is configured and are dropped otherwise.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", GenerateTraceID()),
	)

	t := &Telemetry{logger: logger, started: time.Now()}

	switch cfg.TraceExporter {
	case "stdout":
		if traceOut == nil {
			traceOut = os.Stdout
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(traceOut),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.tracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	t.Registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.meterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = NewPipelineMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	t.Runtime, err = NewRuntimeMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// NewNoopTelemetry returns telemetry that records nothing anywhere
func NewNoopTelemetry() *Telemetry {
	t, err := InitializeTelemetry(config.TelemetryConfig{TraceExporter: "none"}, io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		panic(fmt.Sprintf("failed to build noop telemetry: %v", err))
	}
	return t
}

// StartStage opens a span for one pipeline stage and returns a function that
// closes it and records the stage duration.
func (t *Telemetry) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String("walk.stage", stage))
	ctx, span := t.Tracer.Start(ctx, stage, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		t.Metrics.RecordStage(ctx, stage, time.Since(start))
	}
}

// CollectRuntime records the process footprint so far
func (t *Telemetry) CollectRuntime(ctx context.Context) *RuntimeStats {
	return t.Runtime.Collect(ctx, t.started)
}

// WriteMetrics records the runtime footprint and writes the current metric
// values in Prometheus text format
func (t *Telemetry) WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	t.CollectRuntime(context.Background())
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	t.logger.Debug("Metrics written", slog.String("path", path))
	return nil
}

// Shutdown flushes and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics holds the counters and histograms of the conversion and summary pipeline
type PipelineMetrics struct {
	conversions        metric.Int64Counter
	conversionDuration metric.Float64Histogram
	builds             metric.Int64Counter
	stageDuration      metric.Float64Histogram
	rows               metric.Int64Counter
	enrichmentFailures metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on the given meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	conversions, err := meter.Int64Counter(
		"walk_conversions_total",
		metric.WithDescription("Total number of archive conversions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	conversionDuration, err := meter.Float64Histogram(
		"walk_conversion_duration_seconds",
		metric.WithDescription("Archive conversion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	builds, err := meter.Int64Counter(
		"walk_summary_builds_total",
		metric.WithDescription("Total number of summary builds by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"walk_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Counter(
		"walk_summary_rows_total",
		metric.WithDescription("Workout rows seen by the summary build, by kind"),
	)
	if err != nil {
		return nil, err
	}

	enrichmentFailures, err := meter.Int64Counter(
		"walk_enrichment_failures_total",
		metric.WithDescription("Total number of failed coordinate lookups"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		conversions:        conversions,
		conversionDuration: conversionDuration,
		builds:             builds,
		stageDuration:      stageDuration,
		rows:               rows,
		enrichmentFailures: enrichmentFailures,
	}, nil
}

// RecordConversion records one archive conversion
func (m *PipelineMetrics) RecordConversion(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.conversions.Add(ctx, 1, attrs)
	m.conversionDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordBuild records one summary build
func (m *PipelineMetrics) RecordBuild(ctx context.Context, outcome string) {
	m.builds.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordStage records the duration of one pipeline stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// AddRows counts workout rows of a kind (loaded, written, dropped, malformed, duplicate)
func (m *PipelineMetrics) AddRows(ctx context.Context, kind string, n int) {
	if n <= 0 {
		return
	}
	m.rows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// AddEnrichmentFailure counts one failed coordinate lookup
func (m *PipelineMetrics) AddEnrichmentFailure(ctx context.Context) {
	m.enrichmentFailures.Add(ctx, 1)
}
