// Package runner starts long lived services in order and stops them in
// reverse order when the process is asked to shut down.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ErrShutdownTimeout is returned when services did not stop in time.
var ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultStartupTimeout  = time.Minute
)

type Runner struct {
	services []Service
	logger   *slog.Logger
	signals  []os.Signal

	startupTimeout  time.Duration
	shutdownTimeout time.Duration
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithShutdownTimeout bounds the whole shutdown sequence.
func WithShutdownTimeout(d time.Duration) Option {
	return func(r *Runner) { r.shutdownTimeout = d }
}

// WithStartupTimeout bounds each Start call.
func WithStartupTimeout(d time.Duration) Option {
	return func(r *Runner) { r.startupTimeout = d }
}

// WithSignals replaces SIGINT and SIGTERM as shutdown triggers. With no
// arguments the runner only stops when its context is cancelled.
func WithSignals(sigs ...os.Signal) Option {
	return func(r *Runner) { r.signals = sigs }
}

func New(services []Service, opts ...Option) *Runner {
	r := &Runner{
		services:        services,
		logger:          slog.Default(),
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		startupTimeout:  defaultStartupTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the services one after the other and blocks until ctx ends or
// a signal arrives. If a service fails to start, the ones already running
// are stopped and the start error is returned.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.signals) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, r.signals...)
		defer stop()
	}

	var running []Service
	for _, svc := range r.services {
		if err := r.start(ctx, svc); err != nil {
			r.logger.Error("service failed to start", slog.String("service", svc.Name()), slog.Any("error", err))
			return errors.Join(fmt.Errorf("start service %s: %w", svc.Name(), err), r.stopServices(running))
		}
		running = append(running, svc)
		r.logger.Info("service started", slog.String("service", svc.Name()))
	}

	<-ctx.Done()
	r.logger.Info("shutting down", slog.Int("services", len(running)), slog.Duration("timeout", r.shutdownTimeout))
	return r.stopServices(running)
}

func (r *Runner) start(ctx context.Context, svc Service) error {
	ctx, cancel := context.WithTimeout(ctx, r.startupTimeout)
	defer cancel()
	return svc.Start(ctx)
}

// stopServices stops services last to first within one shared deadline.
// When the deadline passes, the remaining services are abandoned.
func (r *Runner) stopServices(services []Service) error {
	if len(services) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		done := make(chan error, 1)
		go func() { done <- svc.Stop(ctx) }()

		var err error
		select {
		case err = <-done:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			r.logger.Error("shutdown timeout exceeded", slog.String("service", svc.Name()))
			return errors.Join(append(errs, ErrShutdownTimeout)...)
		}
		if err != nil {
			r.logger.Error("service failed to stop", slog.String("service", svc.Name()), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
			continue
		}
		r.logger.Info("service stopped", slog.String("service", svc.Name()))
	}
	return errors.Join(errs...)
}

// HealthCheck returns the first failure among services implementing
// HealthChecker.
func (r *Runner) HealthCheck(ctx context.Context) error {
	for _, svc := range r.services {
		hc, ok := svc.(HealthChecker)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("service %s unhealthy: %w", svc.Name(), err)
		}
	}
	return nil
}
