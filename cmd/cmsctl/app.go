package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/config"
	"github.com/plaenen/cmscore/pkg/messaging"
	natsbus "github.com/plaenen/cmscore/pkg/messaging/nats"
	"github.com/plaenen/cmscore/pkg/middleware"
	"github.com/plaenen/cmscore/pkg/multitenancy"
	"github.com/plaenen/cmscore/pkg/observability"
	"github.com/plaenen/cmscore/pkg/password"
	"github.com/plaenen/cmscore/pkg/security/credentials"
	"github.com/plaenen/cmscore/pkg/store"
	"github.com/plaenen/cmscore/pkg/store/memory"
	"github.com/plaenen/cmscore/pkg/store/sqlstore"
)

// app is everything exec needs, with one Close for all of it.
type app struct {
	bus     *commandbus.Bus
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			err = errors.Join(err, a.Close())
		}
	}()

	tel, err := observability.Init(ctx, observability.Config{
		ServiceName:    "cmsctl",
		ServiceVersion: "dev",
		Environment:    cfg.Environment,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return tel.Shutdown(context.Background()) })

	repos, tx, err := openStore(ctx, cfg, logger, a)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg, logger, tel, a)
	if err != nil {
		return nil, err
	}

	mw := []commandbus.Middleware{
		middleware.Recovery(logger),
		middleware.TracingWithTracer(tel.Tracer(observability.InstrumentationName)),
		middleware.Logging(logger),
		middleware.Metrics(tel.Metrics),
		multitenancy.SiteExtraction(),
		multitenancy.SiteIsolation(),
	}
	if cfg.MaxConflictRetries > 0 {
		mw = append(mw, middleware.RetryOnConflict(cfg.MaxConflictRetries))
	}
	mw = append(mw, middleware.Transaction(tx))

	a.bus = commandbus.New(
		commandbus.WithPublisher(publisher),
		commandbus.WithMiddleware(mw...),
	)
	commandbus.RegisterAll(a.bus, repos, password.NewHasher())
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, a *app) (store.Repositories, store.TxRunner, error) {
	if strings.EqualFold(cfg.StoreDriver, "memory") {
		return memory.New(), store.NoTx, nil
	}

	driver, err := sqlstore.ParseDriver(cfg.StoreDriver)
	if err != nil {
		return store.Repositories{}, nil, err
	}
	s, err := sqlstore.Open(ctx,
		sqlstore.WithDriver(driver),
		sqlstore.WithDSN(cfg.StoreDSN),
		sqlstore.WithLogger(logger),
	)
	if err != nil {
		return store.Repositories{}, nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, s.Close)
	return s.Repositories(), s, nil
}

// newPublisher logs every event and forwards to NATS when CMS_NATS_URL is
// set.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger, tel *observability.Telemetry, a *app) (messaging.Publisher, error) {
	if cfg.NATSURL == "" {
		return messaging.NewLoggingPublisher(logger, nil), nil
	}

	opts := []natsbus.Option{natsbus.WithLogger(logger), natsbus.WithMetrics(tel.Metrics), natsbus.WithTracer(tel.Tracer(observability.InstrumentationName))}
	connOpts, err := natsConnectOptions(ctx, cfg, logger, a)
	if err != nil {
		return nil, err
	}
	opts = append(opts, natsbus.WithConnectOptions(connOpts...))

	natsCfg := natsbus.DefaultConfig()
	natsCfg.URL = cfg.NATSURL
	bus, err := natsbus.Connect(ctx, natsCfg, opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, bus.Close)
	return messaging.NewLoggingPublisher(logger, bus), nil
}

// natsConnectOptions keeps the provider open for the life of the app so
// token credentials can be re-read on reconnect.
func natsConnectOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger, a *app) ([]nats.Option, error) {
	if cfg.NATSCredentialsURL == "" {
		return nil, nil
	}
	p, err := credentials.NewSecretProviderWithConfig(ctx, credentialsLocation(cfg), credentials.Config{
		CacheTTL: 5 * time.Minute,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load NATS credentials: %w", err)
	}
	a.closers = append(a.closers, p.Close)
	return credentials.NATSOptions(ctx, p)
}

func credentialsLocation(cfg *config.Config) credentials.Location {
	return credentials.Location{
		KeeperURL: cfg.NATSCredentialsKeeper,
		BucketURL: cfg.NATSCredentialsURL,
		Key:       cfg.NATSCredentialsKey,
	}
}
