package stocklist

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/offer-stocks/internal/model"
)

var paris, _ = time.LoadLocation("Europe/Paris")

func at(day, hour int) time.Time { return time.Date(2026, 11, day, hour, 0, 0, 0, time.UTC) }

func ids(rows []model.StockListRow) []uint64 {
	out := make([]uint64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func fixtureRows() []model.StockListRow {
	return []model.StockListRow{
		{ID: 1, BeginningDatetime: at(3, 18), PriceCategoryID: 10, Quantity: model.Ptr(50), BookingsQuantity: 5},
		{ID: 2, BeginningDatetime: at(1, 18), PriceCategoryID: 20, Quantity: nil, BookingsQuantity: 1},
		{ID: 3, BeginningDatetime: at(2, 19), PriceCategoryID: 10, Quantity: model.Ptr(10), BookingsQuantity: 9},
		{ID: 4, BeginningDatetime: at(1, 20), PriceCategoryID: 30, Quantity: nil, BookingsQuantity: 0},
	}
}

var categories = []model.PriceCategory{
	{ID: 10, Price: decimal.NewFromInt(25)},
	{ID: 20, Price: decimal.NewFromInt(5)},
	{ID: 30, Price: decimal.NewFromInt(12)},
}

func TestDefaultSortIsBeginningAscending(t *testing.T) {
	got := Sort(fixtureRows(), model.SortState{}, nil)
	assert.Equal(t, []uint64{2, 4, 3, 1}, ids(got))

	got = Sort(fixtureRows(), model.SortState{Column: model.SortDate, Direction: model.SortDirectionNone}, nil)
	assert.Equal(t, []uint64{2, 4, 3, 1}, ids(got))
}

func TestSortByResolvedPrice(t *testing.T) {
	asc := Sort(fixtureRows(), model.SortState{Column: model.SortPriceCategory, Direction: model.SortDirectionAsc}, categories)
	assert.Equal(t, []uint64{2, 4, 1, 3}, ids(asc))

	desc := Sort(fixtureRows(), model.SortState{Column: model.SortPriceCategory, Direction: model.SortDirectionDesc}, categories)
	assert.Equal(t, []uint64{1, 3, 4, 2}, ids(desc))
}

func TestUnlimitedQuantitySortsAsMaximum(t *testing.T) {
	asc := Sort(fixtureRows(), model.SortState{Column: model.SortRemainingQuantity, Direction: model.SortDirectionAsc}, nil)
	assert.Equal(t, []uint64{3, 1, 2, 4}, ids(asc))

	desc := Sort(fixtureRows(), model.SortState{Column: model.SortRemainingQuantity, Direction: model.SortDirectionDesc}, nil)
	assert.Equal(t, []uint64{2, 4, 1, 3}, ids(desc))
}

func TestSortByBookingLimitPutsOpenLast(t *testing.T) {
	rows := fixtureRows()
	limit := at(1, 10)
	rows[2].BookingLimitDatetime = &limit

	got := Sort(rows, model.SortState{Column: model.SortBookingLimitDatetime, Direction: model.SortDirectionAsc}, nil)
	assert.Equal(t, []uint64{3, 1, 2, 4}, ids(got))
}

func TestSortByBookedQuantity(t *testing.T) {
	got := Sort(fixtureRows(), model.SortState{Column: model.SortBookedQuantity, Direction: model.SortDirectionDesc}, nil)
	assert.Equal(t, []uint64{3, 1, 2, 4}, ids(got))
}

func TestSortUnknownColumnPanics(t *testing.T) {
	assert.Panics(t, func() {
		Sort(fixtureRows(), model.SortState{Column: "SEATS", Direction: model.SortDirectionAsc}, nil)
	})
}

func TestSortDoesNotMutateInput(t *testing.T) {
	rows := fixtureRows()
	Sort(rows, model.SortState{Column: model.SortBookedQuantity, Direction: model.SortDirectionAsc}, nil)
	assert.Equal(t, fixtureRows(), rows)
}

func TestFilter(t *testing.T) {
	day := time.Date(2026, 11, 1, 0, 0, 0, 0, paris)
	hour := model.ClockTime{Hour: 19, Minute: 0}
	cat := uint64(10)

	tests := []struct {
		name   string
		filter model.FilterState
		want   []uint64
	}{
		{name: "none", want: []uint64{1, 2, 3, 4}},
		{name: "day in venue zone", filter: model.FilterState{Date: &day}, want: []uint64{2, 4}},
		{name: "hour in venue zone", filter: model.FilterState{Hour: &hour}, want: []uint64{1, 2}},
		{name: "category", filter: model.FilterState{PriceCategoryID: &cat}, want: []uint64{1, 3}},
		{name: "conjunction", filter: model.FilterState{Hour: &hour, PriceCategoryID: &cat}, want: []uint64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := Filter(fixtureRows(), tt.filter, paris)
			assert.Equal(t, tt.want, ids(once))
			assert.Equal(t, once, Filter(once, tt.filter, paris))
		})
	}
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 26, PageCount(501, 20))
	assert.Equal(t, 25, PageCount(500, 20))
	assert.Equal(t, 0, PageCount(0, 20))
	assert.Equal(t, 1, ClampPage(0, 0))
	assert.Equal(t, 25, ClampPage(26, 25))

	rows := make([]model.StockListRow, 45)
	for i := range rows {
		rows[i].ID = uint64(i + 1)
	}
	assert.Len(t, Paginate(rows, 1, 20), 20)
	assert.Equal(t, uint64(41), Paginate(rows, 3, 20)[0].ID)
	assert.Len(t, Paginate(rows, 3, 20), 5)
	assert.Empty(t, Paginate(rows, 4, 20))
}

func TestNextSort(t *testing.T) {
	s := model.SortState{}
	s = NextSort(s, model.SortDate)
	assert.Equal(t, model.SortState{Column: model.SortDate, Direction: model.SortDirectionAsc}, s)
	s = NextSort(s, model.SortDate)
	assert.Equal(t, model.SortDirectionDesc, s.Direction)
	s = NextSort(s, model.SortDate)
	assert.True(t, s.IsDefault())
	s = NextSort(s, model.SortDate)
	assert.Equal(t, model.SortDirectionAsc, s.Direction)

	s = NextSort(model.SortState{Column: model.SortDate, Direction: model.SortDirectionDesc}, model.SortBookedQuantity)
	assert.Equal(t, model.SortState{Column: model.SortBookedQuantity, Direction: model.SortDirectionAsc}, s)
}
