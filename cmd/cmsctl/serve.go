package main

import (
	"context"
	"log/slog"

	"github.com/plaenen/cmscore/pkg/config"
	natsbus "github.com/plaenen/cmscore/pkg/messaging/nats"
	"github.com/plaenen/cmscore/pkg/runner"
	"github.com/plaenen/cmscore/pkg/runtime/embeddednats"
	"github.com/plaenen/cmscore/pkg/runtime/eventbus"
)

// runServe runs the embedded broker and the audit consumer until SIGINT or
// SIGTERM. Point exec at it with CMS_NATS_URL=nats://127.0.0.1:<port>.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	serverOpts := []natsbus.ServerOption{natsbus.WithPort(cfg.NATSPort)}
	if cfg.NATSStoreDir != "" {
		serverOpts = append(serverOpts, natsbus.WithStoreDir(cfg.NATSStoreDir))
	}
	natsSvc := embeddednats.New(
		embeddednats.WithLogger(logger),
		embeddednats.WithServerOptions(serverOpts...),
	)

	busSvc := eventbus.New(
		eventbus.WithURLFunc(natsSvc.URL),
		eventbus.WithLogger(logger),
		eventbus.WithConsumer(eventbus.AuditConsumer(logger)),
	)

	return runner.New(
		[]runner.Service{natsSvc, busSvc},
		runner.WithLogger(logger),
		runner.WithShutdownTimeout(cfg.ShutdownTimeout),
	).Run(ctx)
}
