package pricetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// DefaultSingleEntryLabel is given to the entry of a single-entry table.
const DefaultSingleEntryLabel = "Tarif unique"

var (
	ErrAddNotAllowed    = errors.New("pricetable: only event offers accept additional entries")
	ErrMutationDisabled = errors.New("pricetable: price table is not editable")
	ErrFieldDisabled    = errors.New("pricetable: field is not editable")
	ErrIndexOutOfRange  = errors.New("pricetable: entry index out of range")
	ErrResetNotAllowed  = errors.New("pricetable: reset only applies to a single-entry table")
)

// Outcome tells the caller what RemoveOrReset did.
type Outcome int

const (
	OutcomeRemoved Outcome = iota
	OutcomeReset
	OutcomeAwaitingConfirmation
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRemoved:
		return "removed"
	case OutcomeReset:
		return "reset"
	case OutcomeAwaitingConfirmation:
		return "awaiting_confirmation"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Option customises a Collection.
type Option func(*Collection)

// WithSingleEntryLabel overrides DefaultSingleEntryLabel.
func WithSingleEntryLabel(label string) Option {
	return func(c *Collection) {
		if label != "" {
			c.singleLabel = label
		}
	}
}

// WithIDGenerator injects the draft key generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Collection) {
		if g != nil {
			c.ids = g
		}
	}
}

// Collection is the ordered list of entries being edited for one offer.
// It is not safe for concurrent use; one editing context owns it.
type Collection struct {
	offer       model.Offer
	mode        model.WizardMode
	policy      FieldPolicy
	singleLabel string
	ids         IDGenerator
	entries     []model.PriceTableEntry
	flow        DeletionFlow
}

// NewCollection builds a collection from the entries loaded from the backend.
// An empty load is seeded with one default entry: an offer always exposes at
// least one priceable line.
func NewCollection(offer model.Offer, mode model.WizardMode, policy FieldPolicy, initial []model.PriceTableEntry, opts ...Option) *Collection {
	c := &Collection{
		offer:       offer,
		mode:        mode,
		policy:      policy,
		singleLabel: DefaultSingleEntryLabel,
		ids:         UUIDGenerator{},
	}
	for _, o := range opts {
		o(c)
	}
	for _, e := range initial {
		e = e.Clone()
		if e.Key == "" {
			e.Key = c.ids.NewKey()
		}
		if e.OfferID == 0 {
			e.OfferID = offer.ID
		}
		c.entries = append(c.entries, e)
	}
	if len(c.entries) == 0 {
		c.entries = append(c.entries, c.defaultEntry(c.singleLabel))
	}
	if len(c.entries) == 1 && c.entries[0].Label == "" {
		c.entries[0].Label = c.singleLabel
	}
	return c
}

func (c *Collection) defaultEntry(label string) model.PriceTableEntry {
	return model.PriceTableEntry{
		Key:     c.ids.NewKey(),
		OfferID: c.offer.ID,
		Label:   label,
		Price:   decimal.Zero,
	}
}

func (c *Collection) Offer() model.Offer { return c.offer }
func (c *Collection) Mode() model.WizardMode { return c.mode }
func (c *Collection) Policy() FieldPolicy { return c.policy }
func (c *Collection) SingleEntryLabel() string { return c.singleLabel }
func (c *Collection) Len() int { return len(c.entries) }
func (c *Collection) Confirmation() ConfirmationState { return c.flow.State() }

// Entries returns a deep copy of the entries.
func (c *Collection) Entries() []model.PriceTableEntry {
	out := make([]model.PriceTableEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// Entry returns a copy of the entry at index.
func (c *Collection) Entry(index int) (model.PriceTableEntry, bool) {
	if index < 0 || index >= len(c.entries) {
		return model.PriceTableEntry{}, false
	}
	return c.entries[index].Clone(), true
}

// IsFieldDisabled evaluates the policy against the current entries.
func (c *Collection) IsFieldDisabled(index int, f Field) bool {
	return c.policy.IsFieldDisabled(c.offer, c.entries, index, f)
}

// AddEntry appends a default entry and returns its index.  Only event offers
// can hold several entries.  Leaving the single-entry state clears the
// sentinel label so that both lines get a real name.
func (c *Collection) AddEntry() (int, error) {
	if !c.offer.IsEvent {
		return 0, ErrAddNotAllowed
	}
	if !c.policy.CanMutate() {
		return 0, ErrMutationDisabled
	}
	if len(c.entries) == 1 && c.entries[0].Label == c.singleLabel {
		c.entries[0].Label = ""
	}
	label := ""
	if len(c.entries) == 0 {
		label = c.singleLabel
	}
	c.entries = append(c.entries, c.defaultEntry(label))
	return len(c.entries) - 1, nil
}

// RemoveEntry detaches the entry at index.  Calling it on a single-entry
// collection or with an invalid index is a contract violation; callers go
// through RemoveOrReset.  When two entries become one, the survivor is
// relabelled before the removal happens.
func (c *Collection) RemoveEntry(index int) {
	if len(c.entries) <= 1 {
		panic("pricetable: RemoveEntry called on a single-entry collection")
	}
	if index < 0 || index >= len(c.entries) {
		panic(fmt.Sprintf("pricetable: RemoveEntry index %d out of range [0,%d)", index, len(c.entries)))
	}
	if len(c.entries) == 2 {
		c.entries[1-index].Label = c.singleLabel
	}
	c.entries = append(c.entries[:index], c.entries[index+1:]...)
	c.flow.entryRemoved(index)
}

// ResetEntry restores the sole entry to defaults while keeping its slot:
// key, server identity and server-computed counters survive.  Activation
// codes already persisted cannot be patched from here and are kept.
func (c *Collection) ResetEntry(index int) error {
	if !c.policy.CanMutate() {
		return ErrMutationDisabled
	}
	if len(c.entries) != 1 {
		return ErrResetNotAllowed
	}
	if index != 0 {
		return ErrIndexOutOfRange
	}
	old := c.entries[0]
	fresh := c.defaultEntry(c.singleLabel)
	fresh.Key = old.Key
	fresh.ID = old.ID
	fresh.OfferID = old.OfferID
	fresh.RemainingQuantity = old.RemainingQuantity
	fresh.BookingsQuantity = old.BookingsQuantity
	if old.IsPersisted() && old.HasActivationCode {
		fresh.HasActivationCode = true
		fresh.ActivationCodes = old.ActivationCodes
		fresh.ActivationCodesExpirationDatetime = old.ActivationCodesExpirationDatetime
		fresh.Quantity = old.Quantity
	}
	c.entries[0] = fresh
	return nil
}

// RemoveOrReset is the entry point behind the "delete line" action.
//
// A single entry is reset.  A persisted entry with bookings, in edition
// mode, is parked in the deletion confirmation flow.  Anything else is
// removed at once.  While a confirmation is pending every new request is
// rejected with ErrConfirmationPending.
func (c *Collection) RemoveOrReset(index int) (Outcome, error) {
	if index < 0 || index >= len(c.entries) {
		return 0, ErrIndexOutOfRange
	}
	if !c.policy.CanMutate() {
		return 0, ErrMutationDisabled
	}
	if _, pending := c.flow.Pending(); pending {
		return 0, ErrConfirmationPending
	}
	if len(c.entries) == 1 {
		return OutcomeReset, c.ResetEntry(index)
	}
	e := c.entries[index]
	if e.IsPersisted() && c.mode == model.ModeEdition && e.HasBookings() {
		if err := c.flow.Request(index); err != nil {
			return 0, err
		}
		return OutcomeAwaitingConfirmation, nil
	}
	c.RemoveEntry(index)
	return OutcomeRemoved, nil
}

// PendingRemoval returns the entry index awaiting confirmation.
func (c *Collection) PendingRemoval() (int, bool) { return c.flow.Pending() }

// ConfirmRemoval performs the pending removal and returns the detached
// entry.  Deleting it on the server is a separate, explicit call.
func (c *Collection) ConfirmRemoval() (model.PriceTableEntry, error) {
	idx, err := c.flow.Confirm()
	if err != nil {
		return model.PriceTableEntry{}, err
	}
	if idx < 0 || idx >= len(c.entries) {
		return model.PriceTableEntry{}, ErrIndexOutOfRange
	}
	removed := c.entries[idx].Clone()
	if len(c.entries) == 1 {
		return removed, c.ResetEntry(idx)
	}
	c.RemoveEntry(idx)
	return removed, nil
}

// CancelRemoval abandons the pending removal.
func (c *Collection) CancelRemoval() { c.flow.Cancel() }

func (c *Collection) editable(index int, f Field) error {
	if index < 0 || index >= len(c.entries) {
		return ErrIndexOutOfRange
	}
	if c.IsFieldDisabled(index, f) {
		return fmt.Errorf("%w: %s", ErrFieldDisabled, f)
	}
	return nil
}

// SetLabel edits the label of entries[index].
func (c *Collection) SetLabel(index int, label string) error {
	if err := c.editable(index, FieldLabel); err != nil {
		return err
	}
	c.entries[index].Label = label
	return nil
}

// SetPrice edits the price of entries[index].
func (c *Collection) SetPrice(index int, price decimal.Decimal) error {
	if err := c.editable(index, FieldPrice); err != nil {
		return err
	}
	c.entries[index].Price = price
	return nil
}

// SetQuantity edits the quantity; nil means unlimited.
func (c *Collection) SetQuantity(index int, quantity *int) error {
	if err := c.editable(index, FieldQuantity); err != nil {
		return err
	}
	c.entries[index].Quantity = copyPtr(quantity)
	return nil
}

// SetBookingLimitDatetime edits the booking limit; nil clears it.
func (c *Collection) SetBookingLimitDatetime(index int, t *time.Time) error {
	if err := c.editable(index, FieldBookingLimitDatetime); err != nil {
		return err
	}
	c.entries[index].BookingLimitDatetime = copyPtr(t)
	return nil
}

// SetActivationCodesExpirationDatetime edits the code expiration before any
// code is attached.
func (c *Collection) SetActivationCodesExpirationDatetime(index int, t *time.Time) error {
	if err := c.editable(index, FieldActivationCodesExpirationDatetime); err != nil {
		return err
	}
	c.entries[index].ActivationCodesExpirationDatetime = copyPtr(t)
	return nil
}

// SetPriceCategory points an event entry at a price category.
func (c *Collection) SetPriceCategory(index int, id *uint64) error {
	if err := c.editable(index, FieldPriceCategory); err != nil {
		return err
	}
	c.entries[index].PriceCategoryID = copyPtr(id)
	return nil
}

// Replace swaps the whole entry list, typically with the backend's answer
// after a successful save.  Any pending confirmation is dropped.
func (c *Collection) Replace(entries []model.PriceTableEntry) {
	fresh := NewCollection(c.offer, c.mode, c.policy, entries, WithSingleEntryLabel(c.singleLabel), WithIDGenerator(c.ids))
	c.entries = fresh.entries
	c.flow.Cancel()
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
