package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/inventory/internal/domain/shared"
)

func createTestLot(t *testing.T, quantity int64, unitCost float64) *Lot {
	t.Helper()
	lot, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(quantity), decimal.NewFromFloat(unitCost), nil)
	require.NoError(t, err)
	return lot
}

func TestNewLot(t *testing.T) {
	t.Run("creates lot with explicit number", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), uuid.New(), "L-001", decimal.NewFromInt(10), decimal.NewFromFloat(2.5), nil)

		require.NoError(t, err)
		assert.Equal(t, "L-001", lot.LotNumber)
		assert.Equal(t, "10", lot.InitialQuantity.String())
		assert.Equal(t, "10", lot.CurrentQuantity.String())
		assert.Equal(t, LotQualityGood, lot.Quality)
		assert.True(t, lot.Active)
		assert.False(t, lot.IngressDate.IsZero())
	})

	t.Run("autogenerates lot number when empty", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(10), decimal.NewFromFloat(2.5), nil)

		require.NoError(t, err)
		assert.Contains(t, lot.LotNumber, LotNumberPrefix)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewLot(uuid.New(), uuid.New(), "", decimal.Zero, decimal.NewFromFloat(2.5), nil)

		require.Error(t, err)
		assertDomainErrorCode(t, err, "INVALID_QUANTITY")
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(1), decimal.NewFromFloat(-1), nil)

		require.Error(t, err)
	})
}

func TestGenerateLotNumber(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	assert.Equal(t, "LOTE-20240315093045", GenerateLotNumber(LotNumberPrefix, at))
	assert.Equal(t, "TRANS-20240315093045", GenerateLotNumber(TransferNumberPrefix, at))
}

func TestLot_Consume(t *testing.T) {
	t.Run("consumes requested quantity", func(t *testing.T) {
		lot := createTestLot(t, 100, 5.0)

		consumed, err := lot.Consume(decimal.NewFromInt(30), false)

		require.NoError(t, err)
		assert.Equal(t, "30", consumed.String())
		assert.Equal(t, "70", lot.CurrentQuantity.String())
	})

	t.Run("caps consumption at remaining quantity", func(t *testing.T) {
		lot := createTestLot(t, 20, 5.0)

		consumed, err := lot.Consume(decimal.NewFromInt(50), false)

		require.NoError(t, err)
		assert.Equal(t, "20", consumed.String())
		assert.True(t, lot.CurrentQuantity.IsZero())
		assert.False(t, lot.HasStock())
	})

	t.Run("quarantined lot cannot be consumed", func(t *testing.T) {
		lot := createTestLot(t, 100, 5.0)
		lot.Quarantine()

		_, err := lot.Consume(decimal.NewFromInt(10), false)

		require.ErrorIs(t, err, shared.ErrLotUnavailable)
		assert.Equal(t, "100", lot.CurrentQuantity.String())
	})

	t.Run("force overrides the quality gate", func(t *testing.T) {
		lot := createTestLot(t, 100, 5.0)
		lot.Reject()

		consumed, err := lot.Consume(decimal.NewFromInt(10), true)

		require.NoError(t, err)
		assert.Equal(t, "10", consumed.String())
		assert.Equal(t, "90", lot.CurrentQuantity.String())
	})

	t.Run("deactivated lot cannot be consumed", func(t *testing.T) {
		lot := createTestLot(t, 100, 5.0)
		lot.Deactivate()

		_, err := lot.Consume(decimal.NewFromInt(10), false)

		require.ErrorIs(t, err, shared.ErrLotUnavailable)
	})
}

func TestLot_Replenish(t *testing.T) {
	lot := createTestLot(t, 10, 5.0)
	_, err := lot.Consume(decimal.NewFromInt(10), false)
	require.NoError(t, err)

	require.NoError(t, lot.Replenish(decimal.NewFromInt(4)))

	assert.Equal(t, "4", lot.CurrentQuantity.String())
	assert.Error(t, lot.Replenish(decimal.Zero))
}

func TestLot_Expiry(t *testing.T) {
	t.Run("no expiry date never expires", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)

		assert.False(t, lot.IsExpired())
		assert.False(t, lot.WillExpireWithin(24*time.Hour))
		assert.Equal(t, -1, lot.DaysUntilExpiry())
	})

	t.Run("past expiry date is expired", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		lot, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(10), decimal.NewFromFloat(5), &past)
		require.NoError(t, err)

		assert.True(t, lot.IsExpired())
	})

	t.Run("near expiry is detected within window", func(t *testing.T) {
		soon := time.Now().Add(48 * time.Hour)
		lot, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(10), decimal.NewFromFloat(5), &soon)
		require.NoError(t, err)

		assert.False(t, lot.IsExpired())
		assert.True(t, lot.WillExpireWithin(72*time.Hour))
		assert.False(t, lot.WillExpireWithin(24*time.Hour))
	})
}

func TestLot_IsConsumable(t *testing.T) {
	t.Run("good active lot with stock is consumable", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)

		assert.True(t, lot.IsConsumable())
	})

	t.Run("expired lot remains consumable", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		lot, err := NewLot(uuid.New(), uuid.New(), "", decimal.NewFromInt(10), decimal.NewFromFloat(5), &past)
		require.NoError(t, err)

		assert.True(t, lot.IsConsumable())
	})

	t.Run("quarantined lot is not consumable", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)
		lot.Quarantine()

		assert.False(t, lot.IsConsumable())

		lot.Release()
		assert.True(t, lot.IsConsumable())
	})

	t.Run("rejected lot is not consumable", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)
		lot.Reject()

		assert.False(t, lot.IsConsumable())
	})

	t.Run("deactivated lot is not consumable", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)
		lot.Deactivate()

		assert.False(t, lot.IsConsumable())
	})

	t.Run("empty lot is not consumable", func(t *testing.T) {
		lot := createTestLot(t, 10, 5.0)
		_, err := lot.Consume(decimal.NewFromInt(10), false)
		require.NoError(t, err)

		assert.False(t, lot.IsConsumable())
	})
}

func TestLot_TotalValue(t *testing.T) {
	lot := createTestLot(t, 8, 2.5)

	assert.Equal(t, "20", lot.TotalValue().String())
}
