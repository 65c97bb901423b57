package market

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/esi/esitest"
	"github.com/asteroid-belt/eveuniverse/internal/models"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(db.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func ptr(v float64) *float64 { return &v }

func setup(t *testing.T) (*Refresher, *db.DB, *esitest.Stub) {
	t.Helper()
	database := testDB(t)
	require.NoError(t, database.Create(&models.EveType{Entity: models.Entity{ID: 34, Name: "Tritanium"}}).Error)

	stub := esitest.New()
	stub.SetPrices(
		esi.MarketPrice{TypeID: 34, AdjustedPrice: ptr(4.1), AveragePrice: ptr(4.3)},
		esi.MarketPrice{TypeID: 35, AdjustedPrice: ptr(9.8)},
	)
	return New(database, stub, time.Hour), database, stub
}

func TestRefresh_OnlyKnownTypes(t *testing.T) {
	r, database, _ := setup(t)

	n, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	price, err := database.GetMarketPrice(34)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.InDelta(t, 4.1, *price.AdjustedPrice, 1e-9)
	assert.InDelta(t, 4.3, *price.AveragePrice, 1e-9)

	missing, err := database.GetMarketPrice(35)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRefresh_SkipsFreshPrices(t *testing.T) {
	r, database, stub := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	_, err := r.Refresh(ctx, false)
	require.NoError(t, err)
	stub.ResetCalls()

	now = now.Add(30 * time.Minute)
	n, err := r.Refresh(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, stub.TotalCalls())

	stub.SetPrices(esi.MarketPrice{TypeID: 34, AdjustedPrice: ptr(5)})
	n, err = r.Refresh(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	price, err := database.GetMarketPrice(34)
	require.NoError(t, err)
	assert.InDelta(t, 5, *price.AdjustedPrice, 1e-9)
	assert.Nil(t, price.AveragePrice)

	now = now.Add(2 * time.Hour)
	stub.ResetCalls()
	_, err = r.Refresh(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.CallsTo("/markets/prices/"))

	last, err := database.GetSyncTime(models.SyncMetaLastPriceUpdate)
	require.NoError(t, err)
	assert.True(t, last.Equal(now))
}
