package lock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		locker := NewKeyedLocker(time.Second)
		productID := uuid.New()

		release, err := locker.Acquire(ctx, productID)
		require.NoError(t, err)
		release()

		release, err = locker.Acquire(ctx, productID)
		require.NoError(t, err)
		release()
	})

	t.Run("contended acquire times out with conflict", func(t *testing.T) {
		locker := NewKeyedLocker(50 * time.Millisecond)
		productID := uuid.New()

		release, err := locker.Acquire(ctx, productID)
		require.NoError(t, err)
		defer release()

		_, err = locker.Acquire(ctx, productID)
		require.Error(t, err)
		domainErr, ok := err.(*shared.DomainError)
		require.True(t, ok)
		assert.Equal(t, "CONCURRENCY_CONFLICT", domainErr.Code)
	})

	t.Run("different products do not block each other", func(t *testing.T) {
		locker := NewKeyedLocker(50 * time.Millisecond)

		releaseA, err := locker.Acquire(ctx, uuid.New())
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := locker.Acquire(ctx, uuid.New())
		require.NoError(t, err)
		defer releaseB()
	})

	t.Run("release unblocks a waiter", func(t *testing.T) {
		locker := NewKeyedLocker(time.Second)
		productID := uuid.New()

		release, err := locker.Acquire(ctx, productID)
		require.NoError(t, err)

		acquired := make(chan error, 1)
		go func() {
			r, err := locker.Acquire(ctx, productID)
			if err == nil {
				r()
			}
			acquired <- err
		}()

		time.Sleep(10 * time.Millisecond)
		release()

		select {
		case err := <-acquired:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("waiter was never unblocked")
		}
	})

	t.Run("cancelled context surfaces conflict", func(t *testing.T) {
		locker := NewKeyedLocker(time.Minute)
		productID := uuid.New()

		release, err := locker.Acquire(ctx, productID)
		require.NoError(t, err)
		defer release()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = locker.Acquire(cancelled, productID)
		assert.Error(t, err)
	})
}
