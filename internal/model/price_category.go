package model

import "github.com/shopspring/decimal"

// PriceCategory is a named price owned by an offer.  Entries and stock rows
// reference it by ID so that a price change propagates to every row.
type PriceCategory struct {
	ID      uint64          `json:"id"`       // price_categories.id
	OfferID uint64          `json:"offer_id"` // price_categories.offer_id
	Label   string          `json:"label"`    // price_categories.label
	Price   decimal.Decimal `json:"price"`    // price_categories.price
}

// PriceLookup indexes categories by ID.
func PriceLookup(categories []PriceCategory) map[uint64]decimal.Decimal {
	m := make(map[uint64]decimal.Decimal, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Price
	}
	return m
}
