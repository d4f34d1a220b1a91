// Package eventbus connects the NATS event bus under the runner and
// attaches durable consumers to it.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/messaging"
	natsbus "github.com/plaenen/cmscore/pkg/messaging/nats"
	"github.com/plaenen/cmscore/pkg/observability"
	"github.com/plaenen/cmscore/pkg/runner"
)

// Consumer is a durable subscription started with the service.
type Consumer struct {
	Name    string
	Filter  messaging.EventFilter
	Handler messaging.EventHandler
}

// Service owns the NATS event bus connection.
//
//	natsSvc := embeddednats.New()
//	busSvc := eventbus.New(
//	    eventbus.WithURLFunc(natsSvc.URL),
//	    eventbus.WithConsumer(eventbus.AuditConsumer(logger)),
//	)
//	runner.New([]runner.Service{natsSvc, busSvc}).Run(ctx)
type Service struct {
	config    natsbus.Config
	urlFunc   func() string
	busOpts   []natsbus.Option
	consumers []Consumer
	logger    *slog.Logger
	tracer    trace.Tracer
	bus       *natsbus.EventBus
	subs      []messaging.Subscription
}

var (
	_ runner.Service       = (*Service)(nil)
	_ runner.HealthChecker = (*Service)(nil)
)

// Option configures the EventBus service.
type Option func(*Service)

func WithConfig(config natsbus.Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithURLFunc resolves the server URL at Start, for servers whose address
// is only known once they run.
func WithURLFunc(fn func() string) Option {
	return func(s *Service) {
		s.urlFunc = fn
	}
}

// WithBusOptions is passed through to natsbus.Connect.
func WithBusOptions(opts ...natsbus.Option) Option {
	return func(s *Service) {
		s.busOpts = append(s.busOpts, opts...)
	}
}

func WithConsumer(c Consumer) Option {
	return func(s *Service) {
		s.consumers = append(s.consumers, c)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(opts ...Option) *Service {
	s := &Service{
		config: natsbus.DefaultConfig(),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("eventbus"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Name() string {
	return "eventbus"
}

// Start connects to NATS and attaches every consumer.
func (s *Service) Start(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "eventbus.Start")
	defer span.End()

	cfg := s.config
	if s.urlFunc != nil {
		cfg.URL = s.urlFunc()
	}

	opts := append([]natsbus.Option{natsbus.WithLogger(s.logger)}, s.busOpts...)
	bus, err := natsbus.Connect(ctx, cfg, opts...)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return fmt.Errorf("connect event bus: %w", err)
	}
	s.bus = bus

	for _, c := range s.consumers {
		sub, err := bus.SubscribeDurable(ctx, c.Name, c.Filter, c.Handler)
		if err != nil {
			observability.SetSpanError(ctx, err)
			return errors.Join(fmt.Errorf("attach consumer %s: %w", c.Name, err), bus.Close())
		}
		s.subs = append(s.subs, sub)
	}

	span.SetAttributes(
		attribute.String("nats.url", cfg.URL),
		attribute.String("stream.name", cfg.StreamName),
		attribute.Int("consumers", len(s.consumers)),
	)
	s.logger.Info("event bus connected",
		slog.String("stream", cfg.StreamName),
		slog.Int("consumers", len(s.consumers)))
	return nil
}

// Stop detaches consumers and closes the connection.
func (s *Service) Stop(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "eventbus.Stop")
	defer span.End()

	if s.bus == nil {
		return nil
	}
	var errs []error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
	}
	s.subs = nil
	errs = append(errs, s.bus.Close())
	return errors.Join(errs...)
}

func (s *Service) HealthCheck(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "eventbus.HealthCheck")
	defer span.End()

	if s.bus == nil {
		err := errors.New("event bus not connected")
		observability.SetSpanError(ctx, err)
		return err
	}
	if status := s.bus.Conn().Status(); status != nats.CONNECTED {
		err := fmt.Errorf("nats connection %s", status)
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// EventBus returns the bus, or nil before Start succeeds.
func (s *Service) EventBus() *natsbus.EventBus {
	return s.bus
}

// AuditConsumer logs every event. It is the default durable consumer of
// the serve command.
func AuditConsumer(logger *slog.Logger) Consumer {
	return Consumer{
		Name: "audit",
		Handler: func(ctx context.Context, e domain.Event) error {
			logger.InfoContext(ctx, "audit",
				slog.String("event_id", e.ID),
				slog.String("event_type", e.Type()),
				slog.String("site_id", e.SiteID.String()),
				slog.String("aggregate_id", e.AggregateID.String()),
				slog.Int64("version", e.Version),
				slog.Time("occurred_at", e.Timestamp),
			)
			return nil
		},
	}
}
