package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"gorm.io/gorm"
)

// GormTransactionScope implements unitofwork.TransactionScope with one GORM
// transaction per unit of work.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope. A positive
// lockTimeout bounds every row lock wait on postgres.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs fn in a transaction. If fn returns an error, the transaction
// is rolled back. Store errors come back translated to domain errors.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormRepositories{db: tx})
	})
	return translateError(err)
}

var _ unitofwork.TransactionScope = (*GormTransactionScope)(nil)
