package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_SetsLockTimeoutOnPostgres(t *testing.T) {
	db, mock, _ := newMockDB(t)
	scope := NewGormTransactionScope(db, 1500*time.Millisecond)

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '1500ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		assert.NotNil(t, repos.Accounts())
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_LockTimeoutBecomesConcurrencyError(t *testing.T) {
	db, mock, _ := newMockDB(t)
	scope := NewGormTransactionScope(db, 0)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "material_accounts" WHERE id IN \(\$1\) ORDER BY id FOR UPDATE`).
		WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
	mock.ExpectRollback()

	err := scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		_, err := repos.Accounts().LockByIDs(context.Background(), []uuid.UUID{id})
		return err
	})
	require.Error(t, err)
	assert.True(t, shared.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionScope_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db, time.Second)
	vendor := seedVendor(t, db, "Acme")
	a := seedRawMaterial(t, db, vendor.ID, "RM-1", "RED", "10")
	boom := errors.New("boom")

	err := scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		locked, err := repos.Accounts().LockByIDs(context.Background(), []uuid.UUID{a.ID})
		if err != nil {
			return err
		}
		acc := locked[a.ID]
		entry, err := acc.Post(decimal.NewFromInt(-3), "x", inventory.ManualAdjustmentRef(), shared.SystemActor())
		if err != nil {
			return err
		}
		if err := repos.Accounts().Save(context.Background(), acc); err != nil {
			return err
		}
		if err := repos.Ledger().Append(context.Background(), entry); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := NewGormAccountRepository(db).FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))
	_, total, err := NewGormLedgerRepository(db).FindByAccount(context.Background(), a.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, total)
}
