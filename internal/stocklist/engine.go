// Package stocklist browses the dated stocks of an event offer: filtering,
// single-column sorting, pagination and the server-backed Browser that keeps
// page and selection state consistent with the backend.
package stocklist

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// Filter keeps the rows matching every set dimension of f.  Day and hour are
// evaluated in loc, the venue's time zone.
func Filter(rows []model.StockListRow, f model.FilterState, loc *time.Location) []model.StockListRow {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]model.StockListRow, 0, len(rows))
	for _, r := range rows {
		if matches(r, f, loc) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.StockListRow, f model.FilterState, loc *time.Location) bool {
	begin := r.BeginningDatetime.In(loc)
	if f.Date != nil {
		y, m, d := f.Date.Date()
		by, bm, bd := begin.Date()
		if y != by || m != bm || d != bd {
			return false
		}
	}
	if f.Hour != nil && !f.Hour.Matches(begin) {
		return false
	}
	if f.PriceCategoryID != nil && *f.PriceCategoryID != r.PriceCategoryID {
		return false
	}
	return true
}

// Sort returns a sorted copy of rows.  Without an active column rows are
// ordered by beginning datetime ascending.  Ties always fall back to ID
// ascending so the order is deterministic across pages.  An unknown column
// panics.
func Sort(rows []model.StockListRow, s model.SortState, categories []model.PriceCategory) []model.StockListRow {
	key := sortKey(s, categories)
	out := slices.Clone(rows)
	desc := s.Desc()
	slices.SortStableFunc(out, func(a, b model.StockListRow) int {
		c := key(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Apply filters then sorts.
func Apply(rows []model.StockListRow, f model.FilterState, s model.SortState, categories []model.PriceCategory, loc *time.Location) []model.StockListRow {
	return Sort(Filter(rows, f, loc), s, categories)
}

type comparator func(a, b model.StockListRow) int

func byBeginning(a, b model.StockListRow) int { return a.BeginningDatetime.Compare(b.BeginningDatetime) }

func sortKey(s model.SortState, categories []model.PriceCategory) comparator {
	if s.IsDefault() {
		return byBeginning
	}
	switch s.Column {
	case model.SortDate, model.SortTime, model.SortBeginningDatetime:
		return byBeginning
	case model.SortPriceCategory:
		prices := model.PriceLookup(categories)
		return func(a, b model.StockListRow) int {
			return priceOf(prices, a.PriceCategoryID).Cmp(priceOf(prices, b.PriceCategoryID))
		}
	case model.SortBookingLimitDatetime:
		return func(a, b model.StockListRow) int {
			return compareTimeNilLast(a.BookingLimitDatetime, b.BookingLimitDatetime)
		}
	case model.SortRemainingQuantity:
		return func(a, b model.StockListRow) int {
			return cmp.Compare(quantityOrMax(a.RemainingQuantity()), quantityOrMax(b.RemainingQuantity()))
		}
	case model.SortBookedQuantity:
		return func(a, b model.StockListRow) int { return cmp.Compare(a.BookingsQuantity, b.BookingsQuantity) }
	}
	panic(fmt.Sprintf("stocklist: unknown sort column %q", s.Column))
}

func priceOf(prices map[uint64]decimal.Decimal, id uint64) decimal.Decimal {
	if p, ok := prices[id]; ok {
		return p
	}
	return decimal.Zero
}

// quantityOrMax treats unlimited as larger than any finite quantity.
func quantityOrMax(q *int) int {
	if q == nil {
		return math.MaxInt
	}
	return *q
}

func compareTimeNilLast(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
