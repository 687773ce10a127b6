package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PriceTableEntry is one sellable line of an offer: a price, a quantity, a
// booking window and, for digital things, a batch of activation codes.
//
// ID is nil until the backend has persisted the entry.  Key is the
// client-side identity used to address drafts and is never sent as the
// server identity.  A nil Quantity means unlimited.  RemainingQuantity and
// BookingsQuantity are computed by the backend and read-only here.
type PriceTableEntry struct {
	ID                                *uint64         `json:"id"`
	Key                               string          `json:"key,omitempty"`
	OfferID                           uint64          `json:"offer_id"`
	PriceCategoryID                   *uint64         `json:"price_category_id,omitempty"`
	Label                             string          `json:"label"`
	Price                             decimal.Decimal `json:"price"`
	Quantity                          *int            `json:"quantity"`
	RemainingQuantity                 *int            `json:"remaining_quantity"`
	BookingsQuantity                  int             `json:"bookings_quantity"`
	BookingLimitDatetime              *time.Time      `json:"booking_limit_datetime"`
	HasActivationCode                 bool            `json:"has_activation_code"`
	ActivationCodes                   []string        `json:"activation_codes,omitempty"`
	ActivationCodesExpirationDatetime *time.Time      `json:"activation_codes_expiration_datetime"`
}

// IsPersisted reports whether the backend already knows this entry.
func (e PriceTableEntry) IsPersisted() bool { return e.ID != nil }

// HasBookings reports whether at least one booking references the entry.
func (e PriceTableEntry) HasBookings() bool { return e.BookingsQuantity > 0 }

// Clone returns a deep copy so callers cannot alias the collection's slices
// and pointers.
func (e PriceTableEntry) Clone() PriceTableEntry {
	out := e
	out.ID = clonePtr(e.ID)
	out.PriceCategoryID = clonePtr(e.PriceCategoryID)
	out.Quantity = clonePtr(e.Quantity)
	out.RemainingQuantity = clonePtr(e.RemainingQuantity)
	out.BookingLimitDatetime = clonePtr(e.BookingLimitDatetime)
	out.ActivationCodesExpirationDatetime = clonePtr(e.ActivationCodesExpirationDatetime)
	out.ActivationCodes = slices.Clone(e.ActivationCodes)
	return out
}

// Equal compares the operator-editable state of two entries.  Server-computed
// counters are ignored so that a refreshed booking count is not an edit.
func (e PriceTableEntry) Equal(o PriceTableEntry) bool {
	return ptrEqual(e.ID, o.ID) &&
		ptrEqual(e.PriceCategoryID, o.PriceCategoryID) &&
		e.Label == o.Label &&
		e.Price.Equal(o.Price) &&
		ptrEqual(e.Quantity, o.Quantity) &&
		timePtrEqual(e.BookingLimitDatetime, o.BookingLimitDatetime) &&
		e.HasActivationCode == o.HasActivationCode &&
		slices.Equal(e.ActivationCodes, o.ActivationCodes) &&
		timePtrEqual(e.ActivationCodesExpirationDatetime, o.ActivationCodesExpirationDatetime)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Ptr returns a pointer to v.  Handy for optional fields in literals.
func Ptr[T any](v T) *T { return &v }
