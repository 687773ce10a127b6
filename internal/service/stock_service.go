package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/iliyamo/offer-stocks/internal/cache"
	"github.com/iliyamo/offer-stocks/internal/model"
	"github.com/iliyamo/offer-stocks/internal/monitoring"
	"github.com/iliyamo/offer-stocks/internal/pricetable"
	"github.com/iliyamo/offer-stocks/internal/queue"
	"github.com/iliyamo/offer-stocks/internal/repository"
	"github.com/iliyamo/offer-stocks/internal/stocklist"
)

// MaxDeleteBatch caps the ids accepted by one bulk delete.
const MaxDeleteBatch = 50

// CodeStockFromProvider is the rejection code sent when an operator tries
// to delete stocks that a provider owns.
const CodeStockFromProvider = "STOCK_FROM_PROVIDER_CANNOT_BE_DELETED"

var (
	ErrNoStocks          = errors.New("no stock ids given")
	ErrTooManyStocks     = fmt.Errorf("more than %d stock ids given", MaxDeleteBatch)
	ErrSynchronizedStock = errors.New(CodeStockFromProvider)
	ErrStockNotDeletable = errors.New("stock event ended more than 48 hours ago")
	ErrOfferFrozen       = errors.New("offer stocks cannot be edited")
	ErrCodesNotAllowed   = errors.New("offer cannot have activation codes")
	ErrInvalidCodeFile   = errors.New("invalid activation code file")
	ErrSingleEntryOffer  = errors.New("only event offers accept more than one entry")
)

// Options tune a StockService.  Zero values fall back to the defaults of
// the pricetable package, UTC and the wall clock.
type Options struct {
	ExemptProvider   string
	SingleEntryLabel string
	Location         *time.Location
	Now              func() time.Time
}

// StockService runs every stock operation for an authenticated owner.
type StockService struct {
	store repository.StockStore
	cache *cache.OfferCache
	pub   Publisher
	opts  Options
}

func NewStockService(store repository.StockStore, oc *cache.OfferCache, pub Publisher, opts Options) *StockService {
	if pub == nil {
		pub = NopPublisher{}
	}
	if opts.ExemptProvider == "" {
		opts.ExemptProvider = pricetable.DefaultExemptProvider
	}
	if opts.SingleEntryLabel == "" {
		opts.SingleEntryLabel = pricetable.DefaultSingleEntryLabel
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &StockService{store: store, cache: oc, pub: pub, opts: opts}
}

// Location is the venue time zone used for day and hour filters.
func (s *StockService) Location() *time.Location { return s.opts.Location }

// ownedOffer loads the offer and checks that ownerID owns it.
func (s *StockService) ownedOffer(ctx context.Context, ownerID, offerID uint64) (model.Offer, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return model.Offer{}, err
	}
	if offer.OwnerID != ownerID {
		return model.Offer{}, repository.ErrForbidden
	}
	return offer, nil
}

func (s *StockService) policy(ctx context.Context, offer model.Offer) (pricetable.FieldPolicy, error) {
	conflict, err := s.store.HasConflictingPublishedOfferWithSameEAN(ctx, offer)
	if err != nil {
		return pricetable.FieldPolicy{}, err
	}
	return pricetable.ComputeFieldPolicyWithExemption(offer, conflict, s.opts.ExemptProvider), nil
}

func (s *StockService) calculator(offer model.Offer, mode model.WizardMode) pricetable.ConstraintCalculator {
	return pricetable.ConstraintCalculator{Mode: mode, Offer: offer, Location: s.opts.Location, Now: s.opts.Now}
}

// SearchStocks returns one page of the offer's dated stocks.
func (s *StockService) SearchStocks(ctx context.Context, ownerID, offerID uint64, q stocklist.Query) (page stocklist.Page, err error) {
	defer func(start time.Time) { monitoring.TrackStockOperation(monitoring.OpSearch, start, err) }(time.Now())
	if _, err = s.ownedOffer(ctx, ownerID, offerID); err != nil {
		return stocklist.Page{}, err
	}
	return s.store.SearchStocks(ctx, offerID, q, s.opts.Now())
}

// PriceCategories returns the categories of an event offer.
func (s *StockService) PriceCategories(ctx context.Context, ownerID, offerID uint64) ([]model.PriceCategory, error) {
	if _, err := s.ownedOffer(ctx, ownerID, offerID); err != nil {
		return nil, err
	}
	return s.store.PriceCategories(ctx, offerID)
}

// EntryView is one price table entry with its read-only fields.
type EntryView struct {
	model.PriceTableEntry
	ReadOnlyFields []pricetable.Field `json:"read_only_fields"`
}

// PriceTableView is what an editor needs to render the price table.
type PriceTableView struct {
	Offer                   model.Offer            `json:"offer"`
	Mode                    model.WizardMode       `json:"mode"`
	Policy                  pricetable.FieldPolicy `json:"policy"`
	SingleEntryLabel        string                 `json:"single_entry_label"`
	MinActivationExpiration time.Time              `json:"min_activation_codes_expiration_datetime"`
	Entries                 []EntryView            `json:"entries"`
}

// PriceTable loads the offer's entries the way an editor opens them: an
// empty table gets one blank entry and a sole entry the single entry label.
func (s *StockService) PriceTable(ctx context.Context, ownerID, offerID uint64, mode model.WizardMode) (view PriceTableView, err error) {
	defer func(start time.Time) { monitoring.TrackStockOperation(monitoring.OpPriceTable, start, err) }(time.Now())
	offer, err := s.ownedOffer(ctx, ownerID, offerID)
	if err != nil {
		return PriceTableView{}, err
	}
	pol, err := s.policy(ctx, offer)
	if err != nil {
		return PriceTableView{}, err
	}
	stored, err := s.store.PriceTable(ctx, offerID)
	if err != nil {
		return PriceTableView{}, err
	}

	coll := pricetable.NewCollection(offer, mode, pol, stored, pricetable.WithSingleEntryLabel(s.opts.SingleEntryLabel))
	entries := coll.Entries()
	view = PriceTableView{
		Offer:                   offer,
		Mode:                    mode,
		Policy:                  pol,
		SingleEntryLabel:        coll.SingleEntryLabel(),
		MinActivationExpiration: s.calculator(offer, mode).MinActivationExpiration(),
		Entries:                 make([]EntryView, len(entries)),
	}
	for i, e := range entries {
		view.Entries[i] = EntryView{PriceTableEntry: e, ReadOnlyFields: pol.ReadOnlyFields(offer, entries, i)}
	}
	return view, nil
}

// DeleteStocks removes dated stocks of an offer.  Stocks a provider
// synchronizes and stocks whose event ended more than 48 hours ago are
// refused as a whole batch.
func (s *StockService) DeleteStocks(ctx context.Context, ownerID, offerID uint64, ids []uint64) (n int64, err error) {
	defer func(start time.Time) { monitoring.TrackStockOperation(monitoring.OpDelete, start, err) }(time.Now())
	switch {
	case len(ids) == 0:
		return 0, ErrNoStocks
	case len(ids) > MaxDeleteBatch:
		return 0, ErrTooManyStocks
	}

	offer, err := s.ownedOffer(ctx, ownerID, offerID)
	if err != nil {
		return 0, err
	}
	if !offer.Status.IsEditable() {
		return 0, ErrOfferFrozen
	}
	if offer.IsSynchronized() && !offer.IsSynchronizedBy(s.opts.ExemptProvider) {
		return 0, ErrSynchronizedStock
	}

	refs, err := s.store.StockRefs(ctx, offerID, ids)
	if err != nil {
		return 0, err
	}
	now := s.opts.Now()
	for _, r := range refs {
		if !model.IsEventDeletableAt(r.BeginningDatetime, now) {
			return 0, fmt.Errorf("%w: stock %d", ErrStockNotDeletable, r.ID)
		}
	}

	n, err = s.store.DeleteStocks(ctx, offerID, ids)
	if err != nil {
		return 0, err
	}
	monitoring.TrackStocksAffected(monitoring.OpDelete, int(n))
	if n > 0 {
		s.publish(ctx, queue.StocksDeletedQueue, deletedEvent(offer, refs, now))
	}
	s.invalidate(ctx, offerID)
	return n, nil
}

func deletedEvent(offer model.Offer, refs []repository.StockRef, now time.Time) queue.StocksDeletedEvent {
	ev := queue.StocksDeletedEvent{
		OfferID:   offer.ID,
		OwnerID:   offer.OwnerID,
		Stocks:    make([]queue.DeletedStock, 0, len(refs)),
		DeletedAt: now.UTC().Format(time.RFC3339),
	}
	for _, r := range refs {
		d := queue.DeletedStock{ID: r.ID, BookingsQuantity: r.BookingsQuantity}
		if r.BeginningDatetime != nil {
			d.BeginningDatetime = r.BeginningDatetime.UTC().Format(time.RFC3339)
		}
		ev.Stocks = append(ev.Stocks, d)
		ev.CancelledCount += r.BookingsQuantity
	}
	return ev
}

// UpsertStocks saves price table entries: those without ID are created,
// the others updated.  The batch is checked against the stored table, the
// field policy and the entry bounds before anything is written; refusals
// come back as a *pricetable.RejectionError indexed by batch position.
func (s *StockService) UpsertStocks(ctx context.Context, ownerID, offerID uint64, mode model.WizardMode, entries []model.PriceTableEntry) (n int, err error) {
	defer func(start time.Time) { monitoring.TrackStockOperation(monitoring.OpUpsert, start, err) }(time.Now())
	if len(entries) == 0 {
		return 0, nil
	}
	offer, err := s.ownedOffer(ctx, ownerID, offerID)
	if err != nil {
		return 0, err
	}
	if mode == model.ModeReadOnly {
		return 0, ErrOfferFrozen
	}
	pol, err := s.policy(ctx, offer)
	if err != nil {
		return 0, err
	}
	if pol.AllDisabled {
		return 0, ErrOfferFrozen
	}
	stored, err := s.store.PriceTable(ctx, offerID)
	if err != nil {
		return 0, err
	}

	merged, rej := s.merge(offer, pol, entries, stored)
	if rej != nil {
		return 0, rej
	}
	errs := pricetable.ValidateEntries(s.calculator(offer, mode), merged)
	batchErrs := pricetable.FieldErrors{}
	for k, msg := range errs {
		if k.Index < len(entries) {
			batchErrs.Add(k.Index, k.Field, msg)
		}
	}
	if len(batchErrs) > 0 {
		return 0, &pricetable.RejectionError{Fields: batchErrs}
	}

	batch := merged[:len(entries)]
	n, err = s.store.UpsertStocks(ctx, offerID, batch)
	if err != nil {
		return 0, err
	}

	ev := queue.StocksUpsertedEvent{OfferID: offer.ID, OwnerID: offer.OwnerID, UpsertedAt: s.opts.Now().UTC().Format(time.RFC3339)}
	for _, e := range batch {
		if e.IsPersisted() {
			ev.UpdatedCount++
		} else {
			ev.CreatedCount++
		}
	}
	monitoring.TrackStocksAffected(monitoring.OpUpsert, n)
	s.publish(ctx, queue.StocksUpsertedQueue, ev)
	s.invalidate(ctx, offerID)
	return n, nil
}

// merge returns the batch followed by the stored entries it leaves
// untouched, with server-owned counters taken from the store.  Edits the
// policy forbids are reported per batch position.
func (s *StockService) merge(offer model.Offer, pol pricetable.FieldPolicy, batch, stored []model.PriceTableEntry) ([]model.PriceTableEntry, *pricetable.RejectionError) {
	byID := make(map[uint64]model.PriceTableEntry, len(stored))
	for _, e := range stored {
		byID[*e.ID] = e
	}

	merged := make([]model.PriceTableEntry, 0, len(batch)+len(stored))
	touched := make(map[uint64]bool, len(batch))
	rej := &pricetable.RejectionError{Fields: pricetable.FieldErrors{}}
	for i, e := range batch {
		e = e.Clone()
		e.OfferID = offer.ID
		if e.ID == nil {
			if !pol.CanMutate() {
				rej.Global = append(rej.Global, fmt.Sprintf("entry %d: entries cannot be added to this offer", i))
			}
			if len(e.ActivationCodes) > 0 && !offer.CanHaveActivationCodes() {
				rej.Fields.Add(i, pricetable.FieldActivationCodes, ErrCodesNotAllowed.Error())
			}
			e.BookingsQuantity = 0
			e.HasActivationCode = len(e.ActivationCodes) > 0
			merged = append(merged, e)
			continue
		}
		prev, ok := byID[*e.ID]
		if !ok || touched[*e.ID] {
			rej.Global = append(rej.Global, fmt.Sprintf("entry %d: stock %d not found", i, *e.ID))
			continue
		}
		touched[*e.ID] = true
		e.BookingsQuantity = prev.BookingsQuantity
		e.HasActivationCode = prev.HasActivationCode
		e.ActivationCodes = nil
		e.ActivationCodesExpirationDatetime = prev.ActivationCodesExpirationDatetime
		merged = append(merged, e)
	}
	if len(merged) < len(batch) {
		return nil, rej
	}
	for _, e := range stored {
		if !touched[*e.ID] {
			merged = append(merged, e)
		}
	}
	if !offer.IsEvent && len(merged) > 1 {
		for i, e := range batch {
			if e.ID == nil {
				rej.Global = append(rej.Global, fmt.Sprintf("entry %d: %s", i, ErrSingleEntryOffer))
			}
		}
	}

	for i := range batch {
		if !merged[i].IsPersisted() {
			continue
		}
		prev := byID[*merged[i].ID]
		for _, f := range changedFields(prev, merged[i]) {
			if f == pricetable.FieldLabel && len(merged) == 1 && merged[i].Label == s.opts.SingleEntryLabel {
				continue
			}
			if pol.IsFieldDisabled(offer, merged, i, f) {
				rej.Fields.Add(i, f, "this field cannot be edited")
			}
		}
	}

	if len(rej.Fields) == 0 && len(rej.Global) == 0 {
		return merged, nil
	}
	return nil, rej
}

// changedFields lists the operator-editable fields that differ.
func changedFields(prev, next model.PriceTableEntry) []pricetable.Field {
	setters := []struct {
		f   pricetable.Field
		set func(*model.PriceTableEntry)
	}{
		{pricetable.FieldLabel, func(e *model.PriceTableEntry) { e.Label = next.Label }},
		{pricetable.FieldPrice, func(e *model.PriceTableEntry) { e.Price = next.Price }},
		{pricetable.FieldQuantity, func(e *model.PriceTableEntry) { e.Quantity = next.Quantity }},
		{pricetable.FieldBookingLimitDatetime, func(e *model.PriceTableEntry) { e.BookingLimitDatetime = next.BookingLimitDatetime }},
		{pricetable.FieldPriceCategory, func(e *model.PriceTableEntry) { e.PriceCategoryID = next.PriceCategoryID }},
	}
	var out []pricetable.Field
	for _, st := range setters {
		c := prev.Clone()
		st.set(&c)
		if !c.Equal(prev) {
			out = append(out, st.f)
		}
	}
	return out
}

// CodeUpload is a parsed activation code file ready to be applied to a new
// entry.
type CodeUpload struct {
	Codes                   []string  `json:"codes"`
	MinActivationExpiration time.Time `json:"min_activation_codes_expiration_datetime"`
}

// ParseActivationCodes reads an uploaded code file for an offer.  Nothing
// is stored: codes travel with the entry on the next upsert.
func (s *StockService) ParseActivationCodes(ctx context.Context, ownerID, offerID uint64, mode model.WizardMode, r io.Reader) (up CodeUpload, err error) {
	defer func(start time.Time) { monitoring.TrackStockOperation(monitoring.OpActivationCodes, start, err) }(time.Now())
	offer, err := s.ownedOffer(ctx, ownerID, offerID)
	if err != nil {
		return CodeUpload{}, err
	}
	if !offer.CanHaveActivationCodes() {
		return CodeUpload{}, ErrCodesNotAllowed
	}
	pol, err := s.policy(ctx, offer)
	if err != nil {
		return CodeUpload{}, err
	}
	if !pol.CanMutate() {
		return CodeUpload{}, ErrOfferFrozen
	}
	file := pricetable.ParseActivationCodeFile(r)
	if file.ErrorMessage != "" {
		return CodeUpload{}, fmt.Errorf("%w: %s", ErrInvalidCodeFile, file.ErrorMessage)
	}
	return CodeUpload{Codes: file.Codes, MinActivationExpiration: s.calculator(offer, mode).MinActivationExpiration()}, nil
}

func (s *StockService) publish(ctx context.Context, queueName string, event any) {
	if err := s.pub.Publish(context.WithoutCancel(ctx), queueName, event); err != nil {
		log.Printf("stock-service: publish %s failed: %v", queueName, err)
	}
}

func (s *StockService) invalidate(ctx context.Context, offerID uint64) {
	n, err := s.cache.InvalidateOffer(context.WithoutCancel(ctx), offerID)
	if err != nil {
		log.Printf("stock-service: cache invalidation for offer %d failed: %v", offerID, err)
	}
	monitoring.TrackCacheInvalidation(n)
}
