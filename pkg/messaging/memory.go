package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/plaenen/cmscore/pkg/domain"
)

// ErrClosed is returned when publishing to or subscribing on a closed bus.
var ErrClosed = errors.New("event bus closed")

// MemoryBus delivers events synchronously to in-process subscribers. Handler
// errors are collected and returned from Publish; there is no redelivery.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int]memorySub
	nextID int
	closed bool
}

type memorySub struct {
	filter  EventFilter
	handler EventHandler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]memorySub)}
}

func (b *MemoryBus) Publish(ctx context.Context, events []domain.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	subs := make([]memorySub, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, b.subs[id])
	}
	b.mu.RUnlock()

	var errs []error
	for _, e := range events {
		for _, s := range subs {
			if !s.filter.Matches(e) {
				continue
			}
			if err := s.handler(ctx, e); err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", e.Type(), e.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (b *MemoryBus) Subscribe(_ context.Context, filter EventFilter, handler EventHandler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = memorySub{filter: filter, handler: handler}
	return memorySubscription{bus: b, id: id}, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]memorySub)
	return nil
}

type memorySubscription struct {
	bus *MemoryBus
	id  int
}

func (s memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
	return nil
}
