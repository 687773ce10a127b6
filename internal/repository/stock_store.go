package repository

import (
	"context"
	"time"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

// StockRef is the minimal view of a stock needed to decide whether it may be
// deleted and who must be told about it.
type StockRef struct {
	ID                uint64
	OfferID           uint64
	BeginningDatetime *time.Time
	BookingsQuantity  int
}

// StockStore is implemented by the MySQL repository and the memory store.
type StockStore interface {
	GetOffer(ctx context.Context, offerID uint64) (model.Offer, error)
	// HasConflictingPublishedOfferWithSameEAN reports whether another
	// published offer of the same owner uses the offer's EAN.
	HasConflictingPublishedOfferWithSameEAN(ctx context.Context, offer model.Offer) (bool, error)
	PriceCategories(ctx context.Context, offerID uint64) ([]model.PriceCategory, error)
	// SearchStocks returns one page of dated stocks.  now feeds IsEventDeletable.
	SearchStocks(ctx context.Context, offerID uint64, q stocklist.Query, now time.Time) (stocklist.Page, error)
	// StockRefs returns the live stocks among ids; unknown ids are skipped.
	StockRefs(ctx context.Context, offerID uint64, ids []uint64) ([]StockRef, error)
	// DeleteStocks soft-deletes ids and reports how many were live.  Ids
	// already deleted are not an error.
	DeleteStocks(ctx context.Context, offerID uint64, ids []uint64) (int64, error)
	// PriceTable returns the undated entries of the offer with their codes.
	PriceTable(ctx context.Context, offerID uint64) ([]model.PriceTableEntry, error)
	// UpsertStocks creates entries without ID and updates the others in one
	// transaction.  It returns the number of entries written.
	UpsertStocks(ctx context.Context, offerID uint64, entries []model.PriceTableEntry) (int, error)
}
