package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

func seededMemoryStore(t *testing.T) (*MemoryStore, []uint64) {
	t.Helper()
	m := NewMemoryStore(time.UTC)
	m.PutOffer(model.Offer{ID: 1, OwnerID: 9, Status: model.OfferStatusActive, IsEvent: true, EAN: "9782070360024"})
	cheap := m.AddPriceCategory(1, "reduced", decimal.NewFromInt(5))
	full := m.AddPriceCategory(1, "full", decimal.NewFromInt(20))
	var ids []uint64
	for i := 0; i < 25; i++ {
		cat := cheap.ID
		if i%2 == 0 {
			cat = full.ID
		}
		ids = append(ids, m.AddDatedStock(1, model.StockListRow{
			BeginningDatetime: time.Date(2026, 11, 1+i, 20, 0, 0, 0, time.UTC),
			PriceCategoryID:   cat,
			Quantity:          model.Ptr(100),
		}))
	}
	return m, ids
}

func TestMemorySearchPaginates(t *testing.T) {
	m, ids := seededMemoryStore(t)
	now := time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC)

	page, err := m.SearchStocks(context.Background(), 1, stocklist.Query{Page: 2, PageSize: 20}, now)
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.True(t, page.HasAnyStocks)
	require.Len(t, page.Rows, 5)
	assert.Equal(t, ids[20], page.Rows[0].ID)

	first, err := m.SearchStocks(context.Background(), 1, stocklist.Query{Page: 1, PageSize: 20}, now)
	require.NoError(t, err)
	assert.False(t, first.Rows[0].IsEventDeletable, "event of Nov 1st ended more than 48h ago")
	assert.True(t, first.Rows[19].IsEventDeletable)
}

func TestMemorySearchRejectsUnknownColumn(t *testing.T) {
	m, _ := seededMemoryStore(t)
	_, err := m.SearchStocks(context.Background(), 1, stocklist.Query{Sort: model.SortState{Column: "SEATS", Direction: model.SortDirectionAsc}}, time.Now())
	assert.Error(t, err)
}

func TestMemoryDeleteIsIdempotent(t *testing.T) {
	m, ids := seededMemoryStore(t)
	ctx := context.Background()

	n, err := m.DeleteStocks(ctx, 1, ids[:3])
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = m.DeleteStocks(ctx, 1, ids[:3])
	require.NoError(t, err)
	assert.Zero(t, n)

	refs, err := m.StockRefs(ctx, 1, ids[:5])
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestMemoryUpsertCreatesAndUpdates(t *testing.T) {
	m, _ := seededMemoryStore(t)
	ctx := context.Background()

	n, err := m.UpsertStocks(ctx, 1, []model.PriceTableEntry{{Key: "k", Label: "adult", Price: decimal.NewFromInt(12), Quantity: model.Ptr(40)}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	table, err := m.PriceTable(ctx, 1)
	require.NoError(t, err)
	require.Len(t, table, 1)
	saved := table[0]
	require.NotNil(t, saved.ID)
	assert.Empty(t, saved.Key)
	assert.Equal(t, 40, *saved.RemainingQuantity)

	m.SetBookings(*saved.ID, 4)
	saved.Price = decimal.NewFromInt(15)
	_, err = m.UpsertStocks(ctx, 1, []model.PriceTableEntry{saved})
	require.NoError(t, err)

	table, err = m.PriceTable(ctx, 1)
	require.NoError(t, err)
	assert.True(t, table[0].Price.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 4, table[0].BookingsQuantity)
	assert.Equal(t, 36, *table[0].RemainingQuantity)
}

func TestMemoryUpsertIsAllOrNothing(t *testing.T) {
	m, _ := seededMemoryStore(t)
	_, err := m.UpsertStocks(context.Background(), 1, []model.PriceTableEntry{
		{Label: "new"},
		{ID: model.Ptr(uint64(999))},
	})
	assert.ErrorIs(t, err, ErrStockNotFound)

	table, err := m.PriceTable(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestMemoryEANConflict(t *testing.T) {
	m, _ := seededMemoryStore(t)
	offer, err := m.GetOffer(context.Background(), 1)
	require.NoError(t, err)

	conflict, err := m.HasConflictingPublishedOfferWithSameEAN(context.Background(), offer)
	require.NoError(t, err)
	assert.False(t, conflict)

	m.PutOffer(model.Offer{ID: 2, OwnerID: 9, Status: model.OfferStatusPublished, EAN: offer.EAN})
	conflict, err = m.HasConflictingPublishedOfferWithSameEAN(context.Background(), offer)
	require.NoError(t, err)
	assert.True(t, conflict)

	_, err = m.GetOffer(context.Background(), 42)
	assert.ErrorIs(t, err, ErrOfferNotFound)
}
