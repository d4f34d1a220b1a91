package messaging_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/messaging"
)

func ev(site uuid.UUID, aggType, kind string) domain.Event {
	return domain.Event{ID: uuid.NewString(), Kind: kind, AggregateType: aggType, SiteID: site, AggregateID: uuid.New()}
}

func TestEventFilter(t *testing.T) {
	site := uuid.New()
	e := ev(site, "Language", "Hidden")

	assert.True(t, messaging.EventFilter{}.Matches(e))
	assert.True(t, messaging.EventFilter{SiteIDs: []uuid.UUID{uuid.New(), site}}.Matches(e))
	assert.False(t, messaging.EventFilter{SiteIDs: []uuid.UUID{uuid.New()}}.Matches(e))
	assert.True(t, messaging.EventFilter{AggregateTypes: []string{"Language"}, Kinds: []string{"Hidden"}}.Matches(e))
	assert.False(t, messaging.EventFilter{AggregateTypes: []string{"Module"}}.Matches(e))
	assert.False(t, messaging.EventFilter{Kinds: []string{"Created"}}.Matches(e))
}

func TestEventFilterNarrowsOnly(t *testing.T) {
	kinds := []string{"Created", "Hidden", "Deleted"}
	rapid.Check(t, func(t *rapid.T) {
		e := ev(uuid.Nil, "Language", rapid.SampledFrom(kinds).Draw(t, "kind"))
		filter := messaging.EventFilter{Kinds: rapid.SliceOfDistinct(rapid.SampledFrom(kinds), rapid.ID[string]).Draw(t, "filter")}
		wider := messaging.EventFilter{Kinds: append(append([]string{}, filter.Kinds...), e.Kind)}

		if filter.Matches(e) && !wider.Matches(e) {
			t.Fatalf("adding %q to %v lost a match", e.Kind, filter.Kinds)
		}
		if len(filter.Kinds) > 0 && filter.Matches(e) != contains(filter.Kinds, e.Kind) {
			t.Fatalf("filter %v disagrees on %q", filter.Kinds, e.Kind)
		}
	})
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func TestMemoryBus(t *testing.T) {
	ctx := context.Background()
	bus := messaging.NewMemoryBus()
	site := uuid.New()

	var all, hidden []string
	_, err := bus.Subscribe(ctx, messaging.EventFilter{}, func(_ context.Context, e domain.Event) error {
		all = append(all, e.Kind)
		return nil
	})
	require.NoError(t, err)
	sub, err := bus.Subscribe(ctx, messaging.EventFilter{Kinds: []string{"Hidden"}}, func(_ context.Context, e domain.Event) error {
		hidden = append(hidden, e.Kind)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, []domain.Event{ev(site, "Language", "Created"), ev(site, "Language", "Hidden")}))
	assert.Equal(t, []string{"Created", "Hidden"}, all)
	assert.Equal(t, []string{"Hidden"}, hidden)

	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, bus.Publish(ctx, []domain.Event{ev(site, "Language", "Hidden")}))
	assert.Len(t, hidden, 1)
	assert.Len(t, all, 3)

	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(ctx, nil), messaging.ErrClosed)
	_, err = bus.Subscribe(ctx, messaging.EventFilter{}, nil)
	assert.ErrorIs(t, err, messaging.ErrClosed)
}

func TestMemoryBusCollectsHandlerErrors(t *testing.T) {
	ctx := context.Background()
	bus := messaging.NewMemoryBus()
	boom := errors.New("boom")

	var delivered int
	_, _ = bus.Subscribe(ctx, messaging.EventFilter{}, func(context.Context, domain.Event) error { return boom })
	_, _ = bus.Subscribe(ctx, messaging.EventFilter{}, func(context.Context, domain.Event) error {
		delivered++
		return nil
	})

	err := bus.Publish(ctx, []domain.Event{ev(uuid.Nil, "User", "Created"), ev(uuid.Nil, "User", "Deleted")})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "User.Deleted")
	assert.Equal(t, 2, delivered, "a failing subscriber does not stop the others")
}

func TestLoggingPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var forwarded []domain.Event
	next := messaging.PublisherFunc(func(_ context.Context, events []domain.Event) error {
		forwarded = events
		return nil
	})

	e := ev(uuid.New(), "Module", "TitleUpdated")
	require.NoError(t, messaging.NewLoggingPublisher(logger, next).Publish(context.Background(), []domain.Event{e}))

	assert.Contains(t, buf.String(), `"event_type":"Module.TitleUpdated"`)
	assert.Contains(t, buf.String(), e.ID)
	assert.Equal(t, []domain.Event{e}, forwarded)

	assert.NoError(t, messaging.NewLoggingPublisher(logger, nil).Publish(context.Background(), []domain.Event{e}))
	assert.NoError(t, messaging.NoopPublisher{}.Publish(context.Background(), []domain.Event{e}))
}
