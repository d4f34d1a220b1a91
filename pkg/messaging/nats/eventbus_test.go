package nats_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/idgen"
	"github.com/plaenen/cmscore/pkg/messaging"
	natsbus "github.com/plaenen/cmscore/pkg/messaging/nats"
)

func startBus(t *testing.T) *natsbus.EventBus {
	t.Helper()

	srv, err := natsbus.StartEmbeddedServer(nil, natsbus.WithStoreDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	cfg := natsbus.DefaultConfig()
	cfg.URL = srv.URL()
	bus, err := natsbus.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func event(site uuid.UUID, aggType, kind string, version int64) domain.Event {
	return domain.Event{
		ID:            idgen.New(),
		Kind:          kind,
		AggregateType: aggType,
		AggregateID:   uuid.New(),
		SiteID:        site,
		Version:       version,
		Timestamp:     time.Now().UTC().Truncate(time.Microsecond),
		Data:          map[string]any{"name": "English", "sortOrder": 2},
	}
}

type collector struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collector) handle(_ context.Context, e domain.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collector) snapshot() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func TestPublishAndSubscribe(t *testing.T) {
	bus := startBus(t)
	ctx := context.Background()
	site := uuid.New()

	var got collector
	sub, err := bus.Subscribe(ctx, messaging.EventFilter{}, got.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	sent := event(site, "Language", "Created", 1)
	require.NoError(t, bus.Publish(ctx, []domain.Event{sent}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 5*time.Second, 20*time.Millisecond)

	received := got.snapshot()[0]
	assert.Equal(t, sent.ID, received.ID)
	assert.Equal(t, sent.Type(), received.Type())
	assert.Equal(t, sent.AggregateID, received.AggregateID)
	assert.Equal(t, site, received.SiteID)
	assert.Equal(t, int64(1), received.Version)
	assert.True(t, sent.Timestamp.Equal(received.Timestamp))
	assert.Equal(t, "English", received.Data["name"])
	assert.Equal(t, float64(2), received.Data["sortOrder"])
}

func TestDuplicateEventIDsAreDropped(t *testing.T) {
	bus := startBus(t)
	ctx := context.Background()

	var got collector
	sub, err := bus.Subscribe(ctx, messaging.EventFilter{}, got.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	e := event(uuid.New(), "Module", "Created", 1)
	require.NoError(t, bus.Publish(ctx, []domain.Event{e}))
	require.NoError(t, bus.Publish(ctx, []domain.Event{e}))
	marker := event(uuid.New(), "Module", "Deleted", 2)
	require.NoError(t, bus.Publish(ctx, []domain.Event{marker}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{e.ID, marker.ID}, []string{got.snapshot()[0].ID, got.snapshot()[1].ID})
}

func TestFilterBySiteAndKind(t *testing.T) {
	bus := startBus(t)
	ctx := context.Background()
	siteA, siteB := uuid.New(), uuid.New()

	var got collector
	sub, err := bus.Subscribe(ctx, messaging.EventFilter{
		SiteIDs: []uuid.UUID{siteA},
		Kinds:   []string{"Hidden", "Shown"},
	}, got.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, bus.Publish(ctx, []domain.Event{
		event(siteB, "Language", "Hidden", 2),
		event(siteA, "Language", "Created", 1),
		event(siteA, "Language", "Hidden", 2),
		event(siteA, "Language", "Shown", 3),
	}))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	events := got.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "Hidden", events[0].Kind)
	assert.Equal(t, "Shown", events[1].Kind)
}

func TestDurableSubscriberReplays(t *testing.T) {
	bus := startBus(t)
	ctx := context.Background()

	first := event(uuid.New(), "User", "Created", 1)
	require.NoError(t, bus.Publish(ctx, []domain.Event{first}))

	var got collector
	sub, err := bus.SubscribeDurable(ctx, "audit", messaging.EventFilter{AggregateTypes: []string{"User"}}, got.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, first.ID, got.snapshot()[0].ID)

	_, err = bus.SubscribeDurable(ctx, "", messaging.EventFilter{}, got.handle)
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	site := uuid.MustParse("6f1c0d9e-4a57-4b7c-9a3e-0d4f1e2b3c4d")
	e := event(site, "Language", "Hidden", 2)
	assert.Equal(t, "events.6f1c0d9e-4a57-4b7c-9a3e-0d4f1e2b3c4d.Language.Hidden", natsbus.Subject(e))

	global := event(uuid.Nil, "User", "Created", 1)
	assert.Equal(t, "events.00000000-0000-0000-0000-000000000000.User.Created", natsbus.Subject(global))
}
