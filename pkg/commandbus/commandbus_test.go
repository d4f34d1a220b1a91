package commandbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
	"github.com/plaenen/cmscore/pkg/messaging"
	"github.com/plaenen/cmscore/pkg/password"
	"github.com/plaenen/cmscore/pkg/store/memory"
)

type ping struct {
	N int `json:"n"`
}

func (ping) CommandType() string { return "test.ping" }

func pingEvents(n int) []domain.Event {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{ID: uuid.NewString(), Kind: "Pinged", AggregateType: "Test", Version: int64(i + 1)}
	}
	return events
}

func pingHandler(fn func(ping) ([]domain.Event, error)) domain.Handler[ping] {
	return domain.HandlerFunc[ping](func(_ context.Context, cmd ping) ([]domain.Event, error) {
		return fn(cmd)
	})
}

type recorder struct {
	published [][]domain.Event
	err       error
}

func (r *recorder) Publish(_ context.Context, events []domain.Event) error {
	r.published = append(r.published, events)
	return r.err
}

func TestCommandBus(t *testing.T) {
	ctx := context.Background()

	t.Run("RegisterAndSend", func(t *testing.T) {
		pub := &recorder{}
		bus := commandbus.New(commandbus.WithPublisher(pub))
		commandbus.Register(bus, pingHandler(func(c ping) ([]domain.Event, error) { return pingEvents(c.N), nil }))

		events, err := bus.Send(ctx, ping{N: 2})
		require.NoError(t, err)
		assert.Len(t, events, 2)
		require.Len(t, pub.published, 1)
		assert.Equal(t, events, pub.published[0])
	})

	t.Run("CommandNotFound", func(t *testing.T) {
		_, err := commandbus.New().Send(ctx, ping{})
		assert.ErrorIs(t, err, commandbus.ErrHandlerNotFound)

		_, err = commandbus.New().Send(ctx, nil)
		assert.ErrorIs(t, err, commandbus.ErrInvalidCommand)
	})

	t.Run("DuplicateRegistrationPanics", func(t *testing.T) {
		bus := commandbus.New()
		h := pingHandler(func(ping) ([]domain.Event, error) { return nil, nil })
		commandbus.Register(bus, h)
		assert.Panics(t, func() { commandbus.Register(bus, h) })
	})

	t.Run("MiddlewareOrder", func(t *testing.T) {
		var calls []string
		mw := func(name string) commandbus.Middleware {
			return func(next commandbus.Handler) commandbus.Handler {
				return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
					calls = append(calls, name)
					return next.Handle(ctx, cmd)
				})
			}
		}
		bus := commandbus.New(commandbus.WithMiddleware(mw("first")))
		bus.Use(mw("second"))
		commandbus.Register(bus, pingHandler(func(ping) ([]domain.Event, error) {
			calls = append(calls, "handler")
			return nil, nil
		}))

		_, err := bus.Send(ctx, ping{})
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "handler"}, calls)
	})

	t.Run("FailedCommandPublishesNothing", func(t *testing.T) {
		pub := &recorder{}
		bus := commandbus.New(commandbus.WithPublisher(pub))
		commandbus.Register(bus, pingHandler(func(ping) ([]domain.Event, error) {
			return nil, &domain.NotFoundError{AggregateType: "Test"}
		}))

		events, err := bus.Send(ctx, ping{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, events)
		assert.Empty(t, pub.published)
	})

	t.Run("PartialEventsArePublished", func(t *testing.T) {
		pub := &recorder{}
		bus := commandbus.New(commandbus.WithPublisher(pub))
		commandbus.Register(bus, pingHandler(func(ping) ([]domain.Event, error) {
			return pingEvents(1), &domain.ConcurrencyConflictError{AggregateType: "Test"}
		}))

		events, err := bus.Send(ctx, ping{})
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.Len(t, events, 1)
		assert.Len(t, pub.published, 1)
	})

	t.Run("PublishFailureKeepsEvents", func(t *testing.T) {
		boom := errors.New("broker down")
		bus := commandbus.New(commandbus.WithPublisher(&recorder{err: boom}))
		commandbus.Register(bus, pingHandler(func(ping) ([]domain.Event, error) { return pingEvents(1), nil }))

		events, err := bus.Send(ctx, ping{})
		assert.ErrorIs(t, err, commandbus.ErrPublish)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, events, 1)
	})

	t.Run("SendJSON", func(t *testing.T) {
		bus := commandbus.New()
		var got ping
		commandbus.Register(bus, pingHandler(func(c ping) ([]domain.Event, error) {
			got = c
			return nil, nil
		}))

		_, err := bus.SendJSON(ctx, "test.ping", []byte(`{"n": 7}`))
		require.NoError(t, err)
		assert.Equal(t, 7, got.N)

		_, err = bus.SendJSON(ctx, "test.ping", []byte(`{`))
		assert.ErrorIs(t, err, commandbus.ErrInvalidCommand)

		_, err = bus.SendJSON(ctx, "test.pong", []byte(`{}`))
		assert.ErrorIs(t, err, commandbus.ErrHandlerNotFound)
	})
}

func TestRegisterAll(t *testing.T) {
	ctx := context.Background()
	events := messaging.NewMemoryBus()
	defer events.Close()

	var seen []string
	_, err := events.Subscribe(ctx, messaging.EventFilter{AggregateTypes: []string{language.AggregateType}},
		func(_ context.Context, e domain.Event) error {
			seen = append(seen, e.Type())
			return nil
		})
	require.NoError(t, err)

	bus := commandbus.New(commandbus.WithPublisher(events))
	commandbus.RegisterAll(bus, memory.New(), password.NewHasher(password.WithCost(password.MinCost)))

	assert.Len(t, bus.CommandTypes(), 16)
	assert.Contains(t, bus.CommandTypes(), "language.reorder")
	assert.Contains(t, bus.CommandTypes(), "user.set_password")

	site := uuid.New()
	id := uuid.New()
	_, err = bus.Send(ctx, language.CreateLanguage{SiteID: site, ID: id, Name: "English", CultureName: "en-GB", URL: "en"})
	require.NoError(t, err)
	_, err = bus.SendJSON(ctx, "language.hide", []byte(`{"siteId":"`+site.String()+`","id":"`+id.String()+`"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Language.Created", "Language.Hidden"}, seen)
}
