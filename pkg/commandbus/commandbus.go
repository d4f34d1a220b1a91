// Package commandbus routes commands to their handlers by CommandType,
// runs them through a middleware chain and publishes the resulting events.
package commandbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/messaging"
)

var (
	// ErrHandlerNotFound is returned when no handler is registered for a command type.
	ErrHandlerNotFound = errors.New("command handler not found")

	// ErrInvalidCommand is returned for nil commands and undecodable payloads.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrPublish wraps failures of the publisher. The events were persisted.
	ErrPublish = errors.New("failed to publish events")
)

// Handler is the type-erased form of domain.Handler used inside the bus.
type Handler interface {
	Handle(ctx context.Context, cmd domain.Command) ([]domain.Event, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, cmd domain.Command) ([]domain.Event, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
	return f(ctx, cmd)
}

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

type route struct {
	handler Handler
	decode  func(data []byte) (domain.Command, error)
}

// Bus is an in-process command bus. It is safe for concurrent use.
type Bus struct {
	mu         sync.RWMutex
	routes     map[string]route
	middleware []Middleware
	publisher  messaging.Publisher
}

// Option configures a Bus.
type Option func(*Bus)

// WithPublisher publishes the events of every successful command.
func WithPublisher(p messaging.Publisher) Option {
	return func(b *Bus) {
		b.publisher = p
	}
}

// WithMiddleware appends middleware, see Use.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *Bus) {
		b.middleware = append(b.middleware, mw...)
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{routes: make(map[string]route)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register binds h to the command type of C. Registering the same command
// type twice panics.
func Register[C domain.Command](b *Bus, h domain.Handler[C]) {
	var zero C
	commandType := zero.CommandType()

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.routes[commandType]; exists {
		panic(fmt.Sprintf("handler already registered for command type: %s", commandType))
	}

	b.routes[commandType] = route{
		handler: HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			c, ok := cmd.(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects %T, got %T", ErrInvalidCommand, commandType, zero, cmd)
			}
			return h.Handle(ctx, c)
		}),
		decode: func(data []byte) (domain.Command, error) {
			var c C
			if err := json.Unmarshal(data, &c); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCommand, commandType, err)
			}
			return c, nil
		},
	}
}

// Use adds middleware to the pipeline. The first added is the outermost.
func (b *Bus) Use(mw Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.middleware = append(b.middleware, mw)
}

// Send dispatches cmd and publishes the events it produced. When the handler
// fails after persisting part of its work, those events are still published
// and returned together with the error. A publish failure is reported as
// ErrPublish alongside the events.
func (b *Bus) Send(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	commandType := cmd.CommandType()

	b.mu.RLock()
	r, exists := b.routes[commandType]
	middleware := b.middleware
	publisher := b.publisher
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, commandType)
	}

	h := r.handler
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}

	events, err := h.Handle(ctx, cmd)

	if publisher != nil && len(events) > 0 {
		if pubErr := publisher.Publish(ctx, events); pubErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrPublish, pubErr))
		}
	}
	return events, err
}

// Decode builds the command registered under commandType from its JSON form.
func (b *Bus) Decode(commandType string, data []byte) (domain.Command, error) {
	b.mu.RLock()
	r, exists := b.routes[commandType]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, commandType)
	}
	return r.decode(data)
}

// SendJSON decodes and sends in one step.
func (b *Bus) SendJSON(ctx context.Context, commandType string, data []byte) ([]domain.Event, error) {
	cmd, err := b.Decode(commandType, data)
	if err != nil {
		return nil, err
	}
	return b.Send(ctx, cmd)
}

// CommandTypes lists the registered command types in sorted order.
func (b *Bus) CommandTypes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	types := make([]string, 0, len(b.routes))
	for t := range b.routes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
