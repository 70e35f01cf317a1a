// Package observe provides application-wide observability primitives for
// castgen: OpenTelemetry metrics, distributed tracing and structured logging
// tied to the active span.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider]. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all castgen metrics.
const meterName = "github.com/sillsdev/Glyssen-sub016"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Histograms ---

	// GenerationDuration tracks the wall time of one generation run. Use with
	// attribute:
	//   attribute.String("status", ...)
	GenerationDuration metric.Float64Histogram

	// WorstProximity tracks the worst conflict distance of each returned
	// cast, in script blocks.
	WorstProximity metric.Int64Histogram

	// --- Counters ---

	// Trials counts evaluated trial configurations. Use with attribute:
	//   attribute.String("pass", ...)
	Trials metric.Int64Counter

	// Assignments counts general character assignments. Use with attribute:
	//   attribute.String("tier", ...)
	Assignments metric.Int64Counter

	// Generations counts finished generation runs. Use with attribute:
	//   attribute.String("status", ...)
	Generations metric.Int64Counter
}

// durationBuckets defines histogram bucket boundaries (in seconds) for
// generation runs, which range from milliseconds to minutes.
var durationBuckets = []float64{
	0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300,
}

// proximityBuckets defines histogram bucket boundaries in script blocks.
var proximityBuckets = []float64{
	0, 5, 10, 20, 30, 50, 100, 250, 500, 1000,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.GenerationDuration, err = m.Float64Histogram("castgen.generation.duration",
		metric.WithDescription("Wall time of a casting generation run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}
	if met.WorstProximity, err = m.Int64Histogram("castgen.worst_proximity",
		metric.WithDescription("Worst conflict distance of each generated cast."),
		metric.WithUnit("{block}"),
		metric.WithExplicitBucketBoundaries(proximityBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Trials, err = m.Int64Counter("castgen.trials",
		metric.WithDescription("Total trial configurations evaluated by pass."),
	); err != nil {
		return nil, err
	}
	if met.Assignments, err = m.Int64Counter("castgen.assignments",
		metric.WithDescription("Total character assignments by match-quality tier."),
	); err != nil {
		return nil, err
	}
	if met.Generations, err = m.Int64Counter("castgen.generations",
		metric.WithDescription("Total generation runs by outcome."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTrial records one evaluated trial configuration.
func (m *Metrics) RecordTrial(ctx context.Context, pass string) {
	m.Trials.Add(ctx, 1, metric.WithAttributes(attribute.String("pass", pass)))
}

// RecordAssignment records one general character assignment.
func (m *Metrics) RecordAssignment(ctx context.Context, tier string) {
	m.Assignments.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordGeneration records the outcome and duration of one run.
func (m *Metrics) RecordGeneration(ctx context.Context, status string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Generations.Add(ctx, 1, attrs)
	m.GenerationDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordWorstProximity records the worst conflict distance of a cast.
func (m *Metrics) RecordWorstProximity(ctx context.Context, blocks int) {
	m.WorstProximity.Record(ctx, int64(blocks))
}
