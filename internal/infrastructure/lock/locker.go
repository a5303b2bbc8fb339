package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	appstock "github.com/retail/backend/internal/application/stock"
	"github.com/retail/backend/internal/domain/shared"
)

// KeyedLocker is an in-process product locker backed by one semaphore
// per product. Suitable for single-instance deployments.
type KeyedLocker struct {
	mu      sync.Mutex
	locks   map[uuid.UUID]chan struct{}
	timeout time.Duration
}

// NewKeyedLocker creates an in-process locker with the given
// acquisition timeout
func NewKeyedLocker(timeout time.Duration) *KeyedLocker {
	return &KeyedLocker{
		locks:   make(map[uuid.UUID]chan struct{}),
		timeout: timeout,
	}
}

// Acquire implements stock.ProductLocker
func (l *KeyedLocker) Acquire(ctx context.Context, productID uuid.UUID) (func(), error) {
	l.mu.Lock()
	sem, ok := l.locks[productID]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[productID] = sem
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-timer.C:
		return nil, shared.ErrConcurrencyConflict
	case <-ctx.Done():
		return nil, shared.ErrConcurrencyConflict
	}
}

var _ appstock.ProductLocker = (*KeyedLocker)(nil)
