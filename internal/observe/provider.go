package observe

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName is reported on every metric and span. Default: "castgen".
	ServiceName string

	// ServiceVersion is reported on every metric and span.
	ServiceVersion string

	// MetricsFile, when set, receives a Prometheus text snapshot of all
	// metrics on Shutdown.
	MetricsFile string

	// TraceExporter receives finished spans. Nil records spans without
	// exporting them.
	TraceExporter sdktrace.SpanExporter
}

// Provider owns the meter and tracer providers of one castgen process.
// Metrics are collected into a private Prometheus registry rather than the
// default one, so several providers can coexist in one process.
type Provider struct {
	registry    *prometheus.Registry
	meters      *sdkmetric.MeterProvider
	tracers     *sdktrace.TracerProvider
	metricsFile string
}

// InitProvider builds the providers and installs them as the global OTel
// providers. Call [Provider.Shutdown] before exiting.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "castgen"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}

	p := &Provider{
		registry:    registry,
		meters:      sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exp)),
		tracers:     sdktrace.NewTracerProvider(tpOpts...),
		metricsFile: cfg.MetricsFile,
	}
	otel.SetMeterProvider(p.meters)
	otel.SetTracerProvider(p.tracers)
	return p, nil
}

// MeterProvider returns the provider to build [Metrics] from.
func (p *Provider) MeterProvider() metric.MeterProvider { return p.meters }

// WriteMetrics writes the current metric values to path in the Prometheus
// text format.
func (p *Provider) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("observe: write metrics: %w", err)
	}
	return nil
}

// Shutdown writes the metrics snapshot, if configured, then flushes and
// closes both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.metricsFile != "" {
		errs = append(errs, p.WriteMetrics(p.metricsFile))
	}
	errs = append(errs, p.meters.Shutdown(ctx), p.tracers.Shutdown(ctx))
	return errors.Join(errs...)
}
