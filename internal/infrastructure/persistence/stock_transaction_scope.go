package persistence

import (
	"context"

	appstock "github.com/retail/backend/internal/application/stock"
	"github.com/retail/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM
// transactions. It provides atomic execution of multiple repository
// operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LotRepo returns the lot repository scoped to the current transaction
func (r *gormTransactionalRepositories) LotRepo() stock.LotRepository {
	return NewGormLotRepository(r.tx)
}

// AllocationRepo returns the allocation record repository scoped to the current transaction
func (r *gormTransactionalRepositories) AllocationRepo() stock.AllocationRecordRepository {
	return NewGormAllocationRecordRepository(r.tx)
}

var _ appstock.TransactionScope = (*GormTransactionScope)(nil)
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
