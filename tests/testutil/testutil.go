// Package testutil provides the shared fixtures of the stock engine tests:
// an sqlite-backed harness wired with the real services, seed helpers, a
// recording event publisher and HTTP helpers.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/stockengine/internal/application/catalog"
	"github.com/erp/stockengine/internal/application/partner"
	"github.com/erp/stockengine/internal/application/production"
	"github.com/erp/stockengine/internal/application/purchasing"
	"github.com/erp/stockengine/internal/application/stock"
	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/config"
	"github.com/erp/stockengine/internal/infrastructure/persistence"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect mock database closed at test cleanup.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() { _ = mockDB.Close() })
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// NewSQLiteDB opens a private in-memory sqlite database with every table
// migrated. Each call gets its own database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "Failed to open sqlite")
	require.NoError(t, database.AutoMigrate(models.AllModels()...), "Failed to migrate sqlite")
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// Harness wires every service to one sqlite database
type Harness struct {
	DB     *gorm.DB
	Scope  *persistence.GormTransactionScope
	Repos  unitofwork.Repositories
	Events *RecordingPublisher

	Stock      *stock.Service
	Products   *catalog.ProductService
	Partners   *partner.PartnerService
	Production *production.Service
	Purchasing *purchasing.Service
}

// NewHarness creates a harness on a fresh sqlite database
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	return NewHarnessWithDB(t, NewSQLiteDB(t), 0)
}

// NewHarnessWithDB wires the services to an already migrated database
func NewHarnessWithDB(t *testing.T, db *gorm.DB, lockTimeout time.Duration) *Harness {
	t.Helper()

	scope := persistence.NewGormTransactionScope(db, lockTimeout)
	repos := persistence.NewRepositories(db)
	events := NewRecordingPublisher()

	h := &Harness{
		DB:         db,
		Scope:      scope,
		Repos:      repos,
		Events:     events,
		Stock:      stock.NewService(scope, repos),
		Products:   catalog.NewProductService(scope, repos),
		Partners:   partner.NewPartnerService(scope, repos),
		Production: production.NewService(scope, repos),
		Purchasing: purchasing.NewService(scope, repos),
	}
	h.Stock.SetEventPublisher(events)
	h.Products.SetEventPublisher(events)
	h.Partners.SetEventPublisher(events)
	h.Production.SetEventPublisher(events)
	h.Purchasing.SetEventPublisher(events)
	return h
}

// Vendor creates a supplier and returns its id
func (h *Harness) Vendor(t *testing.T, name string) uuid.UUID {
	t.Helper()
	return h.Partner(t, name, "SUPPLIER")
}

// Partner creates a partner of the given type
func (h *Harness) Partner(t *testing.T, name, partnerType string) uuid.UUID {
	t.Helper()

	p, err := h.Partners.Create(context.Background(), partner.CreatePartnerRequest{
		Name: name,
		Type: partnerType,
	}, TestActor())
	require.NoError(t, err)
	return p.ID
}

// RawMaterial registers a raw material with an opening balance
func (h *Harness) RawMaterial(t *testing.T, vendorID uuid.UUID, itemID, colourCode, opening string) uuid.UUID {
	t.Helper()

	a, err := h.Stock.RegisterMaterial(context.Background(), stock.RegisterMaterialRequest{
		Kind:             string(inventory.AccountKindRawMaterial),
		ItemID:           itemID,
		Name:             itemID,
		Colour:           colourCode,
		ColourCode:       colourCode,
		Unit:             "m",
		ReorderThreshold: decimal.RequireFromString("5"),
		OpeningStock:     decimal.RequireFromString(opening),
		VendorID:         vendorID,
	}, TestActor())
	require.NoError(t, err)
	return a.ID
}

// Product creates a product whose BOM maps account ids to quantity per unit
func (h *Harness) Product(t *testing.T, sku string, bom map[uuid.UUID]string) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	p, err := h.Products.Create(ctx, catalog.CreateProductRequest{SKU: sku, Name: sku + " product"}, TestActor())
	require.NoError(t, err)

	if len(bom) > 0 {
		req := catalog.ReplaceBOMRequest{}
		for accountID, qty := range bom {
			req.Lines = append(req.Lines, catalog.BOMLineInput{
				AccountID:  accountID,
				QtyPerUnit: decimal.RequireFromString(qty),
			})
		}
		_, err = h.Products.ReplaceBOM(ctx, p.ID, req, TestActor())
		require.NoError(t, err)
	}
	return p.ID
}

// Balance returns the current balance of an account
func (h *Harness) Balance(t *testing.T, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	a, err := h.Repos.Accounts().FindByID(context.Background(), accountID)
	require.NoError(t, err)
	return a.Balance
}

// FinishedGoods returns the finished goods account of a product
func (h *Harness) FinishedGoods(t *testing.T, productID uuid.UUID) *inventory.MaterialAccount {
	t.Helper()

	var account *inventory.MaterialAccount
	err := h.Scope.Execute(context.Background(), func(repos unitofwork.Repositories) error {
		var err error
		account, err = repos.Accounts().LockByProduct(context.Background(), productID)
		return err
	})
	require.NoError(t, err)
	return account
}

// Ledger returns every entry of an account, newest first
func (h *Harness) Ledger(t *testing.T, accountID uuid.UUID) []inventory.LedgerEntry {
	t.Helper()

	entries, _, err := h.Repos.Ledger().FindByAccount(context.Background(), accountID, shared.Filter{Page: 1, PageSize: 100})
	require.NoError(t, err)
	return entries
}

// Dec parses a decimal literal
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// RequireErrorCode asserts err is a domain error carrying code
func RequireErrorCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, "Unexpected error: %s", de.Message)
	return de
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestActor returns the standard caller of tests
func TestActor() shared.Actor {
	return shared.NewActor(NewTestUUID("test-actor"), "Test Operator")
}

// ContextWithTimeout creates a context with a timeout for tests.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually retries condition until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
