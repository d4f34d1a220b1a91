package nats

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedServer runs a JetStream enabled NATS server in process. It backs
// local development and tests.
type EmbeddedServer struct {
	server       *server.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
}

// ServerOption customizes the embedded server.
type ServerOption func(*server.Options)

// WithHost sets the listen host. Default 127.0.0.1.
func WithHost(host string) ServerOption {
	return func(o *server.Options) { o.Host = host }
}

// WithPort sets the client port. -1 picks a random free port.
func WithPort(port int) ServerOption {
	return func(o *server.Options) { o.Port = port }
}

// WithStoreDir sets the JetStream storage directory. Empty uses a temp dir.
func WithStoreDir(dir string) ServerOption {
	return func(o *server.Options) { o.StoreDir = dir }
}

// StartEmbeddedServer starts the server and waits until it accepts clients.
func StartEmbeddedServer(logger *slog.Logger, opts ...ServerOption) (*EmbeddedServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	so := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		NoSigs:    true,
	}
	for _, opt := range opts {
		opt(so)
	}

	s, err := server.NewServer(so)
	if err != nil {
		return nil, fmt.Errorf("create embedded server: %w", err)
	}
	go s.Start()

	if !s.ReadyForConnections(5 * time.Second) {
		s.Shutdown()
		return nil, errors.New("embedded server not ready")
	}

	logger.Info("embedded NATS started", slog.String("url", s.ClientURL()))
	return &EmbeddedServer{server: s, logger: logger}, nil
}

// URL returns the client connection URL.
func (e *EmbeddedServer) URL() string {
	return e.server.ClientURL()
}

// Running reports whether the server still accepts connections.
func (e *EmbeddedServer) Running() bool {
	return e.server.Running()
}

// Shutdown stops the server. Safe to call more than once.
func (e *EmbeddedServer) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.server.Shutdown()

		done := make(chan struct{})
		go func() {
			e.server.WaitForShutdown()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			e.logger.Warn("embedded NATS shutdown timed out")
		}
	})
}
