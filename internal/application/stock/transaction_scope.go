package stock

import (
	"context"

	"github.com/retail/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to stock repositories.
// When a function is executed within a transaction scope, all
// repository operations are part of the same database transaction and
// commit or roll back atomically. This is what makes consume
// all-or-nothing: a failure mid-walk rolls back every quantity
// adjustment already applied.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the stock repositories
// within a transaction. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() stock.LotRepository
	// AllocationRepo returns the allocation record repository scoped to the current transaction
	AllocationRepo() stock.AllocationRecordRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually
// use transactions. Useful for testing.
type NoOpTransactionScope struct {
	lotRepo        stock.LotRepository
	allocationRepo stock.AllocationRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	lotRepo stock.LotRepository,
	allocationRepo stock.AllocationRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LotRepo returns the lot repository
func (s *NoOpTransactionScope) LotRepo() stock.LotRepository {
	return s.lotRepo
}

// AllocationRepo returns the allocation record repository
func (s *NoOpTransactionScope) AllocationRepo() stock.AllocationRecordRepository {
	return s.allocationRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
