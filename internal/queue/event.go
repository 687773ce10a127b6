// Package queue defines the stock events exchanged over the message broker
// and the background consumer that records them.
package queue

// Queue names.  Routing uses the default exchange, so they double as
// routing keys.
const (
	StocksDeletedQueue  = "stocks.deleted"
	StocksUpsertedQueue = "stocks.upserted"
)

// DeletedStock describes one stock removed by an operator.
type DeletedStock struct {
	ID                uint64 `json:"id"`
	BeginningDatetime string `json:"beginning_datetime,omitempty"`
	BookingsQuantity  int    `json:"bookings_quantity"`
}

// StocksDeletedEvent is published after stocks are deleted.  Stocks that had
// bookings are listed so the booking system can cancel them and notify the
// beneficiaries without querying the primary database.
type StocksDeletedEvent struct {
	OfferID        uint64         `json:"offer_id"`
	OwnerID        uint64         `json:"owner_id"`
	Stocks         []DeletedStock `json:"stocks"`
	CancelledCount int            `json:"cancelled_bookings"`
	DeletedAt      string         `json:"deleted_at"`
}

// StocksUpsertedEvent is published after a price table was saved.
type StocksUpsertedEvent struct {
	OfferID      uint64 `json:"offer_id"`
	OwnerID      uint64 `json:"owner_id"`
	CreatedCount int    `json:"created"`
	UpdatedCount int    `json:"updated"`
	UpsertedAt   string `json:"upserted_at"`
}
