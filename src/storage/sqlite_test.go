package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wealthpilot-market/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "test.db")

	db, err := NewSQLiteDB(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

// -----------------------------------------------------------------------------

func TestAlertConditionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	id, err := db.InsertCondition(ctx, &models.MAlertCondition{
		UserID:    "user-1",
		Symbol:    "AAPL",
		Rule:      models.AlertPriceAbove,
		Threshold: 200,
		Active:    true,
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	conditions, err := db.ActiveConditions(ctx)
	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, "AAPL", conditions[0].Symbol)
	assert.Equal(t, 200.0, conditions[0].Threshold)
	assert.Nil(t, conditions[0].LastTriggeredAt)

	// Triggering removes it from the active set.
	firedAt := time.Now()
	require.NoError(t, db.MarkTriggered(ctx, id, firedAt))

	conditions, err = db.ActiveConditions(ctx)
	require.NoError(t, err)
	assert.Empty(t, conditions)

	// Reset re-arms it, keeping the trigger timestamp for the cooldown.
	require.NoError(t, db.ResetCondition(ctx, id))

	conditions, err = db.ActiveConditions(ctx)
	require.NoError(t, err)
	require.Len(t, conditions, 1)
	require.NotNil(t, conditions[0].LastTriggeredAt)
	assert.WithinDuration(t, firedAt, *conditions[0].LastTriggeredAt, time.Second)
}

func TestActiveConditionsExcludesInactive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.InsertCondition(ctx, &models.MAlertCondition{
		UserID: "user-1", Symbol: "AAPL", Rule: models.AlertPriceAbove, Threshold: 1, Active: false,
	})
	require.NoError(t, err)
	_, err = db.InsertCondition(ctx, &models.MAlertCondition{
		UserID: "user-1", Symbol: "MSFT", Rule: models.AlertPriceBelow, Threshold: 2, Active: true,
	})
	require.NoError(t, err)

	conditions, err := db.ActiveConditions(ctx)
	require.NoError(t, err)
	require.Len(t, conditions, 1)
	assert.Equal(t, "MSFT", conditions[0].Symbol)
}

// -----------------------------------------------------------------------------

func TestHoldingsQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertHolding(ctx, "user-1", "AAPL", 10))
	require.NoError(t, db.UpsertHolding(ctx, "user-1", "MSFT", 5))
	require.NoError(t, db.UpsertHolding(ctx, "user-2", "AAPL", 3))
	require.NoError(t, db.UpsertHolding(ctx, "user-2", "TSLA", 1))

	symbols, err := db.SymbolsForUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)

	symbols, err = db.SymbolsForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, symbols)

	all, err := db.AllHeldSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, all)
}

func TestUpsertHoldingOverwritesQuantity(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertHolding(ctx, "user-1", "AAPL", 10))
	require.NoError(t, db.UpsertHolding(ctx, "user-1", "AAPL", 25))

	var quantity float64
	require.NoError(t, db.DB.QueryRowContext(ctx,
		`SELECT quantity FROM holdings WHERE user_id = ? AND symbol = ?`,
		"user-1", "AAPL").Scan(&quantity))
	assert.Equal(t, 25.0, quantity)
}

func TestUpdateHoldingPriceCoversAllHolders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertHolding(ctx, "user-1", "AAPL", 10))
	require.NoError(t, db.UpsertHolding(ctx, "user-2", "AAPL", 3))

	require.NoError(t, db.UpdateHoldingPrice(ctx, "AAPL", 231.5))

	rows, err := db.DB.QueryContext(ctx, `SELECT current_price FROM holdings WHERE symbol = ?`, "AAPL")
	require.NoError(t, err)
	defer rows.Close()

	count := 0
	for rows.Next() {
		var price float64
		require.NoError(t, rows.Scan(&price))
		assert.Equal(t, 231.5, price)
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 2, count)
}
