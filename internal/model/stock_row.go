package model

import "time"

// StockListRow is the read-model of one dated occurrence of an event offer.
// A fetch cycle treats rows as immutable; the next fetch replaces them all.
//
// Fields:
//  ID                   – stocks.id
//  BeginningDatetime    – start of the occurrence (UTC).
//  BookingLimitDatetime – last instant a booking is accepted, nil when open.
//  PriceCategoryID      – reference into the offer's price categories.
//  Quantity             – total places, nil means unlimited.
//  BookingsQuantity     – non-cancelled bookings (dnBookedQuantity).
//  IsEventDeletable     – false once the event ended more than 48h ago.
type StockListRow struct {
	ID                   uint64     `json:"id"`
	BeginningDatetime    time.Time  `json:"beginning_datetime"`
	BookingLimitDatetime *time.Time `json:"booking_limit_datetime"`
	PriceCategoryID      uint64     `json:"price_category_id"`
	Quantity             *int       `json:"quantity"`
	BookingsQuantity     int        `json:"bookings_quantity"`
	IsEventDeletable     bool       `json:"is_event_deletable"`
}

// RemainingQuantity is quantity minus bookings; nil when unlimited.
func (r StockListRow) RemainingQuantity() *int {
	if r.Quantity == nil {
		return nil
	}
	v := *r.Quantity - r.BookingsQuantity
	return &v
}

// EventDeletionDelay is how long after an event starts its stock may still be
// removed; past that delay bookings are auto-used and deletion is refused.
const EventDeletionDelay = 48 * time.Hour

// IsEventDeletableAt mirrors the backend rule for IsEventDeletable.
func IsEventDeletableAt(beginning *time.Time, now time.Time) bool {
	if beginning == nil {
		return true
	}
	return !beginning.Add(EventDeletionDelay).Before(now)
}
