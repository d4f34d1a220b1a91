package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/plaenen/cmscore/pkg/domain"
	"github.com/plaenen/cmscore/pkg/store"
)

func conflict() error {
	return &domain.ConcurrencyConflictError{AggregateType: "Language", ID: uuid.New(), Expected: 1, Actual: 2}
}

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		err := store.RetryOnConflict(ctx, 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return conflict()
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := store.RetryOnConflict(ctx, 2, func(context.Context) error {
			calls++
			return conflict()
		})
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := store.RetryOnConflict(ctx, 5, func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("context cancelled during backoff", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
		defer cancel()
		err := store.RetryOnConflict(ctx, 10, func(context.Context) error {
			time.Sleep(5 * time.Millisecond)
			return conflict()
		})
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNoTx(t *testing.T) {
	called := false
	err := store.NoTx.WithinTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)

	assert.False(t, store.Atomic(store.NoTx))
	assert.True(t, store.Atomic(store.TxRunnerFunc(func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	})))
}
