package service

import (
	"context"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

// OwnerBackend binds a StockService to one owner and wizard mode so that a
// stocklist.Browser and a pricetable.Submitter can run in process against
// it.
type OwnerBackend struct {
	Service *StockService
	OwnerID uint64
	Mode    model.WizardMode
}

func (b OwnerBackend) FetchStocks(ctx context.Context, offerID uint64, q stocklist.Query) (stocklist.Page, error) {
	return b.Service.SearchStocks(ctx, b.OwnerID, offerID, q)
}

func (b OwnerBackend) DeleteStocks(ctx context.Context, offerID uint64, ids []uint64) error {
	_, err := b.Service.DeleteStocks(ctx, b.OwnerID, offerID, ids)
	return err
}

func (b OwnerBackend) UpsertStocks(ctx context.Context, offerID uint64, entries []model.PriceTableEntry) (int, error) {
	return b.Service.UpsertStocks(ctx, b.OwnerID, offerID, b.Mode, entries)
}
