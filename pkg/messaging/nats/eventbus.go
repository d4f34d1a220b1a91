// Package nats publishes domain events to NATS JetStream and delivers them
// to durable consumers.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/idgen"
	"github.com/plaenen/cmscore/pkg/messaging"
	"github.com/plaenen/cmscore/pkg/observability"
)

const transport = "nats"

// EventBus is a JetStream backed messaging.EventBus. Delivery is at least
// once; the event ID is used as the JetStream message ID so republishing an
// event inside the duplicate window is a no-op.
type EventBus struct {
	nc         *nats.Conn
	js         nats.JetStreamContext
	streamName string
	logger     *slog.Logger
	metrics    *observability.Metrics
	tracer     trace.Tracer

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

var _ messaging.EventBus = (*EventBus)(nil)

// Config holds configuration for the NATS event bus.
type Config struct {
	URL string

	// StreamName is the JetStream stream holding events.
	StreamName string

	// StreamSubjects must cover "events.>".
	StreamSubjects []string

	// MaxAge is how long events are retained.
	MaxAge time.Duration

	MaxBytes int64

	// DuplicateWindow bounds message ID deduplication.
	DuplicateWindow time.Duration

	// AckWait is how long the server waits for an ack before redelivering.
	AckWait time.Duration
}

// DefaultConfig returns sensible defaults for the NATS event bus.
func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		StreamName:      "CMS_EVENTS",
		StreamSubjects:  []string{"events.>"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1024 * 1024 * 1024,
		DuplicateWindow: 2 * time.Minute,
		AckWait:         30 * time.Second,
	}
}

// Option configures an EventBus.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	connectOpts []nats.Option
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithConnectOptions passes options to nats.Connect, e.g. credentials.
func WithConnectOptions(opts ...nats.Option) Option {
	return func(o *options) { o.connectOpts = append(o.connectOpts, opts...) }
}

// Connect dials NATS and makes sure the event stream exists.
func Connect(ctx context.Context, cfg Config, opts ...Option) (*EventBus, error) {
	o := options{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("nats_eventbus"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	connectOpts := append([]nats.Option{nats.Name("cmscore")}, o.connectOpts...)
	nc, err := nats.Connect(cfg.URL, connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	bus := &EventBus{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		logger:     o.logger.With(slog.String("component", "nats_eventbus")),
		metrics:    o.metrics,
		tracer:     o.tracer,
		subs:       make(map[string]*nats.Subscription),
	}

	if err := bus.ensureStream(ctx, cfg); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return bus, nil
}

func (b *EventBus) ensureStream(ctx context.Context, cfg Config) error {
	streamConfig := &nats.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   cfg.StreamSubjects,
		Retention:  nats.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		MaxBytes:   cfg.MaxBytes,
		Duplicates: cfg.DuplicateWindow,
		Storage:    nats.FileStorage,
		Replicas:   1,
	}

	info, err := b.js.StreamInfo(cfg.StreamName, nats.Context(ctx))
	if errors.Is(err, nats.ErrStreamNotFound) {
		if _, err := b.js.AddStream(streamConfig, nats.Context(ctx)); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if info.Config.MaxAge != cfg.MaxAge || info.Config.MaxBytes != cfg.MaxBytes || info.Config.Duplicates != cfg.DuplicateWindow {
		if _, err := b.js.UpdateStream(streamConfig, nats.Context(ctx)); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
	}
	return nil
}

// Publish sends events in order and stops at the first failure.
func (b *EventBus) Publish(ctx context.Context, events []domain.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.RecordPublish(ctx, transport, time.Since(start), len(events), err)
		}
	}()

	for _, e := range events {
		if err := b.publishOne(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (b *EventBus) publishOne(ctx context.Context, e domain.Event) (err error) {
	ctx, span := b.tracer.Start(ctx, "nats.publish "+e.Type(),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(observability.EventAttrs(e)...),
	)
	defer func() { observability.EndSpan(span, err) }()

	payload, err := encodeEvent(e)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	ack, err := b.js.Publish(Subject(e), payload, nats.MsgId(e.ID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish event %s: %w", e.ID, err)
	}
	if ack.Duplicate {
		b.logger.DebugContext(ctx, "duplicate event ignored", slog.String("event_id", e.ID))
	}
	return nil
}

// Subscribe attaches an ephemeral consumer that only sees events published
// after the call.
func (b *EventBus) Subscribe(ctx context.Context, filter messaging.EventFilter, handler messaging.EventHandler) (messaging.Subscription, error) {
	return b.subscribe(ctx, filter, handler, "", nats.DeliverNew())
}

// SubscribeDurable attaches to the named durable consumer, creating it when
// missing. A durable consumer resumes where it left off and shares work
// between all subscribers using the same name.
func (b *EventBus) SubscribeDurable(ctx context.Context, name string, filter messaging.EventFilter, handler messaging.EventHandler) (messaging.Subscription, error) {
	if name == "" {
		return nil, errors.New("durable name is required")
	}
	return b.subscribe(ctx, filter, handler, name, nats.DeliverAll())
}

func (b *EventBus) subscribe(ctx context.Context, filter messaging.EventFilter, handler messaging.EventHandler, durable string, deliver nats.SubOpt) (messaging.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlerCtx := context.WithoutCancel(ctx)
	cb := func(msg *nats.Msg) {
		e, err := decodeEvent(msg.Data)
		if err != nil {
			b.logger.ErrorContext(handlerCtx, "dropping undecodable message",
				slog.String("subject", msg.Subject), slog.Any("error", err))
			_ = msg.Term()
			return
		}
		if !filter.Matches(e) {
			_ = msg.Ack()
			return
		}

		err = handler(handlerCtx, e)
		if b.metrics != nil {
			b.metrics.RecordConsumed(handlerCtx, transport, e, err)
		}
		if err != nil {
			b.logger.WarnContext(handlerCtx, "event handler failed, redelivering",
				slog.String("event_id", e.ID),
				slog.String("event_type", e.Type()),
				slog.Any("error", err))
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	subOpts := []nats.SubOpt{
		nats.BindStream(b.streamName),
		nats.ManualAck(),
		nats.AckExplicit(),
		deliver,
	}
	var (
		sub *nats.Subscription
		err error
		key = durable
	)
	if durable != "" {
		subOpts = append(subOpts, nats.Durable(durable))
		sub, err = b.js.QueueSubscribe(filterSubject(filter), durable, cb, subOpts...)
	} else {
		key = "ephemeral_" + idgen.New()
		sub, err = b.js.Subscribe(filterSubject(filter), cb, subOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	b.subs[key] = sub
	return &subscription{bus: b, sub: sub, key: key}, nil
}

// Close drains subscriptions and closes the connection.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for key, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			errs = append(errs, err)
		}
		delete(b.subs, key)
	}
	b.nc.Close()
	return errors.Join(errs...)
}

// Conn exposes the underlying connection for health checks.
func (b *EventBus) Conn() *nats.Conn {
	return b.nc
}

type subscription struct {
	bus  *EventBus
	sub  *nats.Subscription
	key  string
	once sync.Once
}

func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.key)
		s.bus.mu.Unlock()
		err = s.sub.Unsubscribe()
	})
	return err
}

// Subject returns the subject an event is published on:
// events.<siteID>.<aggregateType>.<kind>.
func Subject(e domain.Event) string {
	return strings.Join([]string{"events", e.SiteID.String(), e.AggregateType, e.Kind}, ".")
}

// filterSubject narrows the server side subject as far as the filter allows.
// Anything left over is checked by EventFilter.Matches in the callback.
func filterSubject(f messaging.EventFilter) string {
	site, aggType, kind := "*", "*", "*"
	if len(f.SiteIDs) == 1 {
		site = f.SiteIDs[0].String()
	}
	if len(f.AggregateTypes) == 1 {
		aggType = f.AggregateTypes[0]
	}
	if len(f.Kinds) == 1 {
		kind = f.Kinds[0]
	}
	if site == "*" && aggType == "*" && kind == "*" {
		return "events.>"
	}
	return strings.Join([]string{"events", site, aggType, kind}, ".")
}
