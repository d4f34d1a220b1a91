package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/plaenen/cmscore/pkg/domain"
)

// Metrics holds the metric instruments of the command layer.
type Metrics struct {
	// Command metrics
	CommandDuration metric.Float64Histogram
	CommandTotal    metric.Int64Counter
	CommandErrors   metric.Int64Counter

	// Event metrics
	EventsRecorded  metric.Int64Counter
	EventsPublished metric.Int64Counter
	PublishErrors   metric.Int64Counter
	PublishLatency  metric.Float64Histogram
	EventsConsumed  metric.Int64Counter
}

// NewMetrics creates all metric instruments
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.CommandDuration, err = meter.Float64Histogram(
		"cms.command.duration",
		metric.WithDescription("Command execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating command.duration: %w", err)
	}

	m.CommandTotal, err = meter.Int64Counter(
		"cms.command.total",
		metric.WithDescription("Total commands executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating command.total: %w", err)
	}

	m.CommandErrors, err = meter.Int64Counter(
		"cms.command.errors",
		metric.WithDescription("Total failed commands by error kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating command.errors: %w", err)
	}

	m.EventsRecorded, err = meter.Int64Counter(
		"cms.events.recorded",
		metric.WithDescription("Events produced by successful commands"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events.recorded: %w", err)
	}

	m.EventsPublished, err = meter.Int64Counter(
		"cms.events.published",
		metric.WithDescription("Events handed to the broker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events.published: %w", err)
	}

	m.PublishErrors, err = meter.Int64Counter(
		"cms.events.publish_errors",
		metric.WithDescription("Failed event publications"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events.publish_errors: %w", err)
	}

	m.PublishLatency, err = meter.Float64Histogram(
		"cms.events.publish.latency",
		metric.WithDescription("Broker publish latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events.publish.latency: %w", err)
	}

	m.EventsConsumed, err = meter.Int64Counter(
		"cms.events.consumed",
		metric.WithDescription("Events delivered to subscribers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events.consumed: %w", err)
	}

	return m, nil
}

// ErrorKind names the class of a command error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrValidationFailed):
		return "validation_failed"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}

// RecordCommand records command execution metrics
func (m *Metrics) RecordCommand(ctx context.Context, commandType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("command_type", commandType))

	m.CommandDuration.Record(ctx, duration.Seconds(), attrs)
	m.CommandTotal.Add(ctx, 1, attrs)

	if err != nil {
		m.CommandErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command_type", commandType),
			attribute.String("error_kind", ErrorKind(err)),
		))
	}
}

// RecordEvents counts events per aggregate type and kind.
func (m *Metrics) RecordEvents(ctx context.Context, events []domain.Event) {
	for _, e := range events {
		m.EventsRecorded.Add(ctx, 1, metric.WithAttributes(
			attribute.String("aggregate_type", e.AggregateType),
			attribute.String("kind", e.Kind),
		))
	}
}

// RecordPublish records one publish call carrying count events.
func (m *Metrics) RecordPublish(ctx context.Context, transport string, duration time.Duration, count int, err error) {
	attrs := metric.WithAttributes(attribute.String("transport", transport))

	m.PublishLatency.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.PublishErrors.Add(ctx, 1, attrs)
		return
	}
	m.EventsPublished.Add(ctx, int64(count), attrs)
}

// RecordConsumed counts one event delivered to a subscriber.
func (m *Metrics) RecordConsumed(ctx context.Context, transport string, e domain.Event, err error) {
	m.EventsConsumed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("event_type", e.Type()),
		attribute.Bool("success", err == nil),
	))
}
