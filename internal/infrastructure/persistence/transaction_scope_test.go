package persistence

import (
	"context"
	"testing"

	appinventory "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("runs the callback inside a committed transaction", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		scope := NewGormTransactionScope(gormDB)

		productID := uuid.New()
		warehouseID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "stock_records" WHERE product_id = \$1 AND warehouse_id = \$2`).
			WithArgs(productID, warehouseID, 1).
			WillReturnRows(sqlmock.NewRows(stockRecordColumns()).AddRow(
				uuid.New(), productID, warehouseID,
				decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(4), true, 1,
			))
		mock.ExpectCommit()

		err := scope.Execute(context.Background(), func(repos appinventory.TransactionalRepositories) error {
			record, err := repos.StockRecords().FindByProductAndWarehouse(context.Background(), productID, warehouseID)
			if err != nil {
				return err
			}
			assert.True(t, record.Quantity.Equal(decimal.NewFromInt(10)))
			return nil
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the callback fails", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		scope := NewGormTransactionScope(gormDB)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := scope.Execute(context.Background(), func(repos appinventory.TransactionalRepositories) error {
			return assert.AnError
		})

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces driver deadlocks as concurrency conflicts", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()

		scope := NewGormTransactionScope(gormDB)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := scope.Execute(context.Background(), func(repos appinventory.TransactionalRepositories) error {
			return &pgconn.PgError{Code: pgDeadlockDetected, Message: "deadlock detected"}
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
