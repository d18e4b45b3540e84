package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/infrastructure/config"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory sqlite database with every table migrated
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// newMockDB returns a postgres-dialect gorm DB backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return gormDB, mock, mockDB
}

func seedVendor(t *testing.T, db *gorm.DB, name string) *partner.Partner {
	t.Helper()
	p, err := partner.NewPartner(name, partner.PartnerTypeSupplier)
	require.NoError(t, err)
	require.NoError(t, NewGormPartnerRepository(db).Save(context.Background(), p))
	return p
}

func seedRawMaterial(t *testing.T, db *gorm.DB, vendorID uuid.UUID, itemID, colourCode string, balance string) *inventory.MaterialAccount {
	t.Helper()
	a, err := inventory.NewMaterialAccount(inventory.MaterialSpec{
		Kind:             inventory.AccountKindRawMaterial,
		ItemID:           itemID,
		ColourCode:       colourCode,
		Name:             itemID + " " + colourCode,
		Unit:             "kg",
		ReorderThreshold: decimal.RequireFromString("5"),
		VendorID:         vendorID,
	})
	require.NoError(t, err)
	a.Balance = decimal.RequireFromString(balance)
	require.NoError(t, NewGormAccountRepository(db).Save(context.Background(), a))
	return a
}
