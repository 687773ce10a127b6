package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

type memStock struct {
	offerID uint64
	row     model.StockListRow
	deleted bool
}

type memEntry struct {
	entry   model.PriceTableEntry
	deleted bool
}

// MemoryStore is a StockStore kept in process memory.  Searches run the
// same filter and sort engine as the browser so both backends agree.
type MemoryStore struct {
	mu         sync.RWMutex
	loc        *time.Location
	nextID     uint64
	offers     map[uint64]model.Offer
	categories map[uint64][]model.PriceCategory
	dated      map[uint64]*memStock
	entries    map[uint64]*memEntry
}

// NewMemoryStore returns an empty store evaluating day and hour filters in loc.
func NewMemoryStore(loc *time.Location) *MemoryStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryStore{
		loc:        loc,
		offers:     make(map[uint64]model.Offer),
		categories: make(map[uint64][]model.PriceCategory),
		dated:      make(map[uint64]*memStock),
		entries:    make(map[uint64]*memEntry),
	}
}

func (m *MemoryStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// PutOffer inserts or replaces an offer.
func (m *MemoryStore) PutOffer(o model.Offer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[o.ID] = o
	m.nextID = max(m.nextID, o.ID)
}

// AddPriceCategory appends a category and returns it with its ID.
func (m *MemoryStore) AddPriceCategory(offerID uint64, label string, price decimal.Decimal) model.PriceCategory {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.PriceCategory{ID: m.id(), OfferID: offerID, Label: label, Price: price}
	m.categories[offerID] = append(m.categories[offerID], c)
	return c
}

// AddDatedStock stores a dated stock and returns its ID.
func (m *MemoryStore) AddDatedStock(offerID uint64, row model.StockListRow) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	row.ID = m.id()
	m.dated[row.ID] = &memStock{offerID: offerID, row: row}
	return row.ID
}

// SetBookings overrides the booked quantity of any stock.
func (m *MemoryStore) SetBookings(stockID uint64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.dated[stockID]; ok {
		s.row.BookingsQuantity = n
	}
	if e, ok := m.entries[stockID]; ok {
		e.entry.BookingsQuantity = n
	}
}

func (m *MemoryStore) GetOffer(_ context.Context, offerID uint64) (model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[offerID]
	if !ok {
		return model.Offer{}, ErrOfferNotFound
	}
	return o, nil
}

func (m *MemoryStore) HasConflictingPublishedOfferWithSameEAN(_ context.Context, offer model.Offer) (bool, error) {
	if offer.EAN == "" {
		return false, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.offers {
		if o.ID == offer.ID || o.OwnerID != offer.OwnerID || o.EAN != offer.EAN {
			continue
		}
		switch o.Status {
		case model.OfferStatusActive, model.OfferStatusPublished, model.OfferStatusSoldOut:
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) PriceCategories(_ context.Context, offerID uint64) ([]model.PriceCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.categories[offerID])
	if out == nil {
		out = []model.PriceCategory{}
	}
	return out, nil
}

func (m *MemoryStore) SearchStocks(_ context.Context, offerID uint64, q stocklist.Query, now time.Time) (stocklist.Page, error) {
	m.mu.RLock()
	var rows []model.StockListRow
	for _, s := range m.dated {
		if s.offerID == offerID && !s.deleted {
			r := s.row
			r.IsEventDeletable = model.IsEventDeletableAt(&r.BeginningDatetime, now)
			rows = append(rows, r)
		}
	}
	categories := m.categories[offerID]
	m.mu.RUnlock()

	if _, err := model.ParseSortColumn(string(q.Sort.Column)); err != nil {
		return stocklist.Page{}, err
	}
	all := stocklist.Apply(rows, q.Filter, q.Sort, categories, m.loc)
	return stocklist.Page{
		Rows:         slices.Clone(stocklist.Paginate(all, q.Page, q.PageSize)),
		TotalCount:   len(all),
		HasAnyStocks: len(rows) > 0,
	}, nil
}

func (m *MemoryStore) StockRefs(_ context.Context, offerID uint64, ids []uint64) ([]StockRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StockRef
	for _, id := range ids {
		if s, ok := m.dated[id]; ok && s.offerID == offerID && !s.deleted {
			begin := s.row.BeginningDatetime
			out = append(out, StockRef{ID: id, OfferID: offerID, BeginningDatetime: &begin, BookingsQuantity: s.row.BookingsQuantity})
		}
		if e, ok := m.entries[id]; ok && e.entry.OfferID == offerID && !e.deleted {
			out = append(out, StockRef{ID: id, OfferID: offerID, BookingsQuantity: e.entry.BookingsQuantity})
		}
	}
	slices.SortFunc(out, func(a, b StockRef) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryStore) DeleteStocks(_ context.Context, offerID uint64, ids []uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if s, ok := m.dated[id]; ok && s.offerID == offerID && !s.deleted {
			s.deleted = true
			n++
		}
		if e, ok := m.entries[id]; ok && e.entry.OfferID == offerID && !e.deleted {
			e.deleted = true
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) PriceTable(_ context.Context, offerID uint64) ([]model.PriceTableEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []model.PriceTableEntry{}
	for _, e := range m.entries {
		if e.entry.OfferID == offerID && !e.deleted {
			v := e.entry.Clone()
			if v.Quantity != nil {
				rem := *v.Quantity - v.BookingsQuantity
				v.RemainingQuantity = &rem
			}
			// codes are never read back, only their presence
			v.ActivationCodes = nil
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b model.PriceTableEntry) int { return cmp.Compare(*a.ID, *b.ID) })
	return out, nil
}

// UpsertStocks applies every entry or none.
func (m *MemoryStore) UpsertStocks(_ context.Context, offerID uint64, entries []model.PriceTableEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.ID == nil {
			continue
		}
		cur, ok := m.entries[*e.ID]
		if !ok || cur.deleted || cur.entry.OfferID != offerID {
			return 0, fmt.Errorf("%w: %d", ErrStockNotFound, *e.ID)
		}
	}
	for _, e := range entries {
		e = e.Clone()
		e.OfferID = offerID
		e.Key = ""
		if e.ID == nil {
			id := m.id()
			e.ID = &id
			e.HasActivationCode = len(e.ActivationCodes) > 0
			e.BookingsQuantity = 0
			m.entries[id] = &memEntry{entry: e}
			continue
		}
		cur := m.entries[*e.ID]
		e.BookingsQuantity = cur.entry.BookingsQuantity
		e.HasActivationCode = cur.entry.HasActivationCode
		e.ActivationCodes = cur.entry.ActivationCodes
		e.ActivationCodesExpirationDatetime = cur.entry.ActivationCodesExpirationDatetime
		cur.entry = e
	}
	return len(entries), nil
}
