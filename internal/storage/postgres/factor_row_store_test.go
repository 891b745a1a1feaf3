package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northbound-factor-lab/internal/domain"
	"northbound-factor-lab/internal/storage"
)

func testFactorRow(date domain.TradeDate, factor float64) domain.FactorRow {
	return domain.FactorRow{
		Date:        date,
		DateTime:    date.Time(),
		Factor:      null.FloatFrom(factor),
		Buy:         null.FloatFrom(200),
		Sell:        null.FloatFrom(100),
		InflowTense: null.FloatFrom(factor / 300),
	}
}

func TestFactorRowStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFactorRowStore(pool)
	ctx := context.Background()

	first := testFactorRow(20210104, 30)
	first.Futures = &domain.FuturesDailyRecord{Date: 20210104, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Amount: 100, Return: 0.02}

	gap := domain.FactorRow{Date: 20210105, DateTime: domain.TradeDate(20210105).Time(), Factor: null.FloatFrom(3)}

	zeroFlow := testFactorRow(20210106, 3)
	zeroFlow.InflowTense = null.FloatFrom(math.Inf(1))

	require.NoError(t, store.UpsertBulk(ctx, "IC", []domain.FactorRow{first, gap, zeroFlow}))

	got, err := store.GetByDateRange(ctx, "IC", 20210105, 20210106)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Futures)
	assert.False(t, got[0].Buy.Valid)
	assert.False(t, got[0].InflowTense.Valid)
	assert.True(t, math.IsInf(got[1].InflowTense.Float64, 1))

	got, err = store.GetByDateRange(ctx, "IC", 20210104, 20210104)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Futures)
	assert.Equal(t, *first.Futures, *got[0].Futures)
	assert.Equal(t, 0.1, got[0].InflowTense.Float64)
}

func TestFactorRowStore_UpsertReplacesAndAdds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFactorRowStore(pool)
	ctx := context.Background()

	require.NoError(t, store.UpsertBulk(ctx, "IC", []domain.FactorRow{testFactorRow(20210104, 1)}))

	corrected := testFactorRow(20210104, 2)
	corrected.Futures = &domain.FuturesDailyRecord{Date: 20210104, Close: 6200}
	require.NoError(t, store.UpsertBulk(ctx, "IC", []domain.FactorRow{corrected, testFactorRow(20210105, 3)}))

	got, err := store.GetByDateRange(ctx, "IC", 20210101, 20211231)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Factor.Float64)
	require.NotNil(t, got[0].Futures)
	assert.Equal(t, 6200.0, got[0].Futures.Close)
	assert.Equal(t, 3.0, got[1].Factor.Float64)
}

func TestFactorRowStore_DuplicateInBatchRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFactorRowStore(pool)
	ctx := context.Background()

	err := store.UpsertBulk(ctx, "IC", []domain.FactorRow{
		testFactorRow(20210105, 1),
		testFactorRow(20210104, 1),
		testFactorRow(20210105, 2),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByDateRange(ctx, "IC", 20210101, 20211231)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFactorRowStore_InvalidInstrument(t *testing.T) {
	store := NewFactorRowStore(nil)
	err := store.UpsertBulk(context.Background(), "", []domain.FactorRow{testFactorRow(20210104, 1)})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
