package middleware

import (
	"context"

	"github.com/plaenen/cmscore/pkg/commandbus"
	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/store"
)

// Transaction runs each command inside tx. With an atomic tx, composite
// commands such as a language reorder become all-or-nothing and a failure
// returns no events. With store.NoTx the writes made before the failure
// are kept, so their events are returned along with the error.
func Transaction(tx store.TxRunner) commandbus.Middleware {
	atomic := store.Atomic(tx)
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			var events []domain.Event
			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				var err error
				events, err = next.Handle(ctx, cmd)
				return err
			})
			if err != nil && atomic {
				return nil, err
			}
			return events, err
		})
	}
}

// RetryOnConflict re-runs a command that failed with a concurrency conflict.
// Handlers reload their aggregates, so a retry sees the winning write.
// Events returned by a failed attempt describe writes that were kept, so
// they are carried over ahead of the events of later attempts.
func RetryOnConflict(maxRetries int) commandbus.Middleware {
	return func(next commandbus.Handler) commandbus.Handler {
		return commandbus.HandlerFunc(func(ctx context.Context, cmd domain.Command) ([]domain.Event, error) {
			var events []domain.Event
			err := store.RetryOnConflict(ctx, maxRetries, func(ctx context.Context) error {
				attempt, err := next.Handle(ctx, cmd)
				events = append(events, attempt...)
				return err
			})
			return events, err
		})
	}
}
