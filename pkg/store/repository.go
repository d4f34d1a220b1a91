// Package store groups the repository contracts of the aggregates and the
// helpers shared by their implementations (package memory and sqlstore).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/language"
	"github.com/plaenen/cmscore/pkg/module"
	"github.com/plaenen/cmscore/pkg/moduletype"
	"github.com/plaenen/cmscore/pkg/user"
)

// Repositories is one set of repositories sharing a backing store.
type Repositories struct {
	Languages   language.Repository
	ModuleTypes moduletype.Repository
	Modules     module.Repository
	Users       user.Repository
}

// TxRunner runs fn atomically. Repository calls made with the context passed
// to fn join the transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxRunnerFunc adapts a function to TxRunner.
type TxRunnerFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TxRunnerFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx runs fn directly. It serves stores without transactions, so writes
// made before a failure stay persisted.
var NoTx TxRunner = noTx{}

type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Atomic reports whether tx discards the writes of a failed fn.
func Atomic(tx TxRunner) bool {
	_, plain := tx.(noTx)
	return !plain
}

// RetryOnConflict runs fn again while it fails with a concurrency conflict,
// up to maxRetries extra attempts. fn must reload the aggregate each time.
// Backoff doubles from 10ms and stops early when ctx is done.
func RetryOnConflict(ctx context.Context, maxRetries int, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) || attempt >= maxRetries {
			return err
		}

		backoff := time.Duration(10*(1<<uint(attempt))) * time.Millisecond
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
	}
}
