package pricetable

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// ErrEditWithBookingsNeedsConfirmation is returned when a changed entry
// already has bookings and the operator has not acknowledged the impact.
var ErrEditWithBookingsNeedsConfirmation = errors.New("pricetable: editing entries with bookings requires confirmation")

// Upserter persists entries: entries without ID are created, the others
// updated.  On refusal it returns a *RejectionError indexed by position in
// the slice it received.
type Upserter interface {
	UpsertStocks(ctx context.Context, offerID uint64, entries []model.PriceTableEntry) (int, error)
}

// ChangedEntries returns the indexes of entries that are new or differ
// from their persisted counterpart in baseline.
func ChangedEntries(baseline, current []model.PriceTableEntry) []int {
	byID := make(map[uint64]model.PriceTableEntry, len(baseline))
	for _, b := range baseline {
		if b.ID != nil {
			byID[*b.ID] = b
		}
	}
	var out []int
	for i, e := range current {
		if e.ID == nil {
			out = append(out, i)
			continue
		}
		prev, ok := byID[*e.ID]
		if !ok || !prev.Equal(e) {
			out = append(out, i)
		}
	}
	return out
}

// SubmitResult describes a successful submit.
type SubmitResult struct {
	Sent           int `json:"sent"`
	PersistedCount int `json:"persisted_count"`
}

// Submitter sends the changed entries of a Collection.
type Submitter struct {
	Backend    Upserter
	Calculator ConstraintCalculator
}

// Submit validates, then sends only changed entries.  Nothing reaches the
// backend when validation fails.  A rejection is re-indexed onto the
// collection; any other failure is returned wrapped and leaves the
// collection untouched.  confirmedBookingEdits acknowledges that persisted
// entries with bookings are being changed.
func (s *Submitter) Submit(ctx context.Context, c *Collection, baseline []model.PriceTableEntry, confirmedBookingEdits bool) (SubmitResult, error) {
	entries := c.Entries()
	if errs := ValidateEntries(s.Calculator, entries); len(errs) > 0 {
		return SubmitResult{}, &ValidationError{Fields: errs}
	}

	changed := ChangedEntries(baseline, entries)
	if len(changed) == 0 {
		return SubmitResult{}, nil
	}
	if !confirmedBookingEdits {
		for _, i := range changed {
			if entries[i].IsPersisted() && entries[i].HasBookings() {
				return SubmitResult{}, ErrEditWithBookingsNeedsConfirmation
			}
		}
	}

	batch := make([]model.PriceTableEntry, len(changed))
	for j, i := range changed {
		batch[j] = entries[i]
	}
	n, err := s.Backend.UpsertStocks(ctx, c.Offer().ID, batch)
	if err != nil {
		var re *RejectionError
		if errors.As(err, &re) {
			return SubmitResult{}, remapRejection(re, changed)
		}
		return SubmitResult{}, fmt.Errorf("pricetable: submit: %w", err)
	}
	return SubmitResult{Sent: len(batch), PersistedCount: n}, nil
}

// remapRejection converts batch positions into collection indexes.  A field
// error pointing outside the batch is surfaced as a global message.
func remapRejection(re *RejectionError, changed []int) *RejectionError {
	out := &RejectionError{Fields: FieldErrors{}, Global: append([]string(nil), re.Global...)}
	for k, msg := range re.Fields {
		if k.Index < 0 || k.Index >= len(changed) {
			out.Global = append(out.Global, msg)
			continue
		}
		out.Fields.Add(changed[k.Index], k.Field, msg)
	}
	return out
}
