// Package observability sets up OpenTelemetry tracing and metrics for the
// command layer. Exporters are pluggable; without them every call is a no-op.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer and meter of this module.
const InstrumentationName = "github.com/plaenen/cmscore"

// Config selects exporters. A nil SpanExporter disables tracing and a nil
// MetricReader keeps instruments that record nowhere.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	SpanExporter sdktrace.SpanExporter

	// SampleRatio applies to root spans; children follow their parent.
	// Zero means sample everything.
	SampleRatio float64

	MetricReader sdkmetric.Reader

	// SetGlobal installs the providers and a W3C propagator as otel globals.
	SetGlobal bool

	Logger *slog.Logger
}

// Telemetry holds the providers built by Init.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Metrics        *Metrics

	logger    *slog.Logger
	shutdowns []func(context.Context) error
}

// Init builds the tracer and meter providers.
func Init(ctx context.Context, cfg Config) (*Telemetry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	t := &Telemetry{logger: logger}

	if cfg.SpanExporter != nil {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(cfg.SpanExporter),
			sdktrace.WithSampler(sampler(cfg.SampleRatio)),
		)
		t.TracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
	} else {
		t.TracerProvider = noop.NewTracerProvider()
	}

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.MetricReader != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(cfg.MetricReader))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)
	t.MeterProvider = mp
	t.shutdowns = append(t.shutdowns, mp.Shutdown)

	if t.Metrics, err = NewMetrics(mp.Meter(InstrumentationName)); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	if cfg.SetGlobal {
		otel.SetTracerProvider(t.TracerProvider)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	logger.Debug("observability initialized",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing", cfg.SpanExporter != nil),
		slog.Bool("metrics", cfg.MetricReader != nil))
	return t, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Shutdown flushes and stops every provider Init started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdowns {
		errs = append(errs, fn(ctx))
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}

func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.TracerProvider.Tracer(name)
}

func (t *Telemetry) Meter(name string) metric.Meter {
	return t.MeterProvider.Meter(name)
}
