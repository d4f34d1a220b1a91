// Package messaging hands domain events produced by command handlers to
// interested parties. Publishing happens after the aggregates are saved, so
// a publish failure never undoes a state change.
package messaging

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/plaenen/cmscore/pkg/domain"
)

// Publisher delivers events in the order given.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Subscriber registers handlers for published events.
type Subscriber interface {
	Subscribe(ctx context.Context, filter EventFilter, handler EventHandler) (Subscription, error)
}

// EventBus is both ends of a transport.
type EventBus interface {
	Publisher
	Subscriber
	Close() error
}

// EventFilter selects events. Empty fields match everything.
type EventFilter struct {
	SiteIDs        []uuid.UUID
	AggregateTypes []string
	Kinds          []string
}

// Matches reports whether e passes the filter.
func (f EventFilter) Matches(e domain.Event) bool {
	if len(f.SiteIDs) > 0 && !slices.Contains(f.SiteIDs, e.SiteID) {
		return false
	}
	if len(f.AggregateTypes) > 0 && !slices.Contains(f.AggregateTypes, e.AggregateType) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	return true
}

// EventHandler processes an event. Returning an error asks the transport to
// redeliver when it supports redelivery.
type EventHandler func(ctx context.Context, event domain.Event) error

// Subscription represents an active event subscription.
type Subscription interface {
	Unsubscribe() error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, events []domain.Event) error

func (f PublisherFunc) Publish(ctx context.Context, events []domain.Event) error {
	return f(ctx, events)
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, []domain.Event) error { return nil }

// LoggingPublisher writes one log record per event, then forwards to Next
// when set.
type LoggingPublisher struct {
	Logger *slog.Logger
	Next   Publisher
}

func NewLoggingPublisher(logger *slog.Logger, next Publisher) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{Logger: logger, Next: next}
}

func (p *LoggingPublisher) Publish(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		p.Logger.InfoContext(ctx, "event",
			slog.String("event_id", e.ID),
			slog.String("event_type", e.Type()),
			slog.String("site_id", e.SiteID.String()),
			slog.String("aggregate_id", e.AggregateID.String()),
			slog.Int64("version", e.Version),
		)
	}
	if p.Next == nil {
		return nil
	}
	return p.Next.Publish(ctx, events)
}
