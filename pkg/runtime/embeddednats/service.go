// Package embeddednats runs the in-process NATS server under the runner.
package embeddednats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	natsbus "github.com/plaenen/cmscore/pkg/messaging/nats"
	"github.com/plaenen/cmscore/pkg/observability"
	"github.com/plaenen/cmscore/pkg/runner"
)

var errNotStarted = errors.New("nats server not started")

var (
	_ runner.Service       = (*Service)(nil)
	_ runner.HealthChecker = (*Service)(nil)
)

type Service struct {
	logger     *slog.Logger
	tracer     trace.Tracer
	serverOpts []natsbus.ServerOption

	srv *natsbus.EmbeddedServer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option { return func(s *Service) { s.logger = logger } }

func WithTracer(tracer trace.Tracer) Option { return func(s *Service) { s.tracer = tracer } }

// WithServerOptions configures the server itself, for example
// natsbus.WithPort or natsbus.WithStoreDir.
func WithServerOptions(opts ...natsbus.ServerOption) Option {
	return func(s *Service) { s.serverOpts = append(s.serverOpts, opts...) }
}

func New(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("embeddednats"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Name() string { return "embedded-nats" }

func (s *Service) Start(ctx context.Context) (err error) {
	_, span := s.tracer.Start(ctx, "embeddednats.Start")
	defer func() { observability.EndSpan(span, err) }()

	srv, err := natsbus.StartEmbeddedServer(s.logger, s.serverOpts...)
	if err != nil {
		return fmt.Errorf("start embedded NATS: %w", err)
	}
	s.srv = srv
	span.SetAttributes(attribute.String("nats.url", srv.URL()))
	return nil
}

// Stop is safe to call more than once.
func (s *Service) Stop(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "embeddednats.Stop")
	defer span.End()

	if s.srv != nil {
		s.srv.Shutdown()
	}
	return nil
}

// HealthCheck dials the server to confirm it still accepts clients.
func (s *Service) HealthCheck(ctx context.Context) (err error) {
	_, span := s.tracer.Start(ctx, "embeddednats.HealthCheck")
	defer func() { observability.EndSpan(span, err) }()

	if s.srv == nil {
		return errNotStarted
	}
	nc, err := nats.Connect(s.srv.URL(), nats.Name("cmscore-healthcheck"))
	if err != nil {
		return fmt.Errorf("nats server not responsive: %w", err)
	}
	nc.Close()
	return nil
}

// URL is empty until Start succeeds.
func (s *Service) URL() string {
	if s.srv == nil {
		return ""
	}
	return s.srv.URL()
}
