package pricetable

import (
	"time"

	"github.com/iliyamo/offer-stocks/internal/model"
)

const (
	// ActivationCodeValidityMargin separates the booking limit from the code
	// expiration so that a beneficiary always has a week to redeem.
	ActivationCodeValidityMargin = 7 * 24 * time.Hour
	// MaxQuantity is the largest finite quantity accepted for one entry.
	MaxQuantity = 1_000_000
)

// Bounds are the per-entry limits fed to the editing form.  A nil time bound
// means "no limit".  Dates are truncated to the calendar day in Location.
type Bounds struct {
	BookingLimitMin         *time.Time `json:"booking_limit_min"`
	BookingLimitMax         *time.Time `json:"booking_limit_max"`
	ActivationExpirationMin *time.Time `json:"activation_expiration_min"`
	QuantityMin             int        `json:"quantity_min"`
	QuantityMax             int        `json:"quantity_max"`
}

// ConstraintCalculator computes Bounds.  EventDate is the beginning of the
// occurrence an entry sells, nil for things.
type ConstraintCalculator struct {
	Mode      model.WizardMode
	Offer     model.Offer
	EventDate *time.Time
	Location  *time.Location
	Now       func() time.Time
}

func (c ConstraintCalculator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c ConstraintCalculator) loc() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

func (c ConstraintCalculator) startOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}

// MinActivationExpiration is "tomorrow" relative to offer creation in edition
// mode and relative to now otherwise.
func (c ConstraintCalculator) MinActivationExpiration() time.Time {
	ref := c.now()
	if c.Mode == model.ModeEdition && !c.Offer.DateCreated.IsZero() {
		ref = c.Offer.DateCreated
	}
	return c.startOfDay(ref).AddDate(0, 0, 1)
}

// For returns the bounds of one entry.
func (c ConstraintCalculator) For(e model.PriceTableEntry) Bounds {
	var b Bounds

	today := c.startOfDay(c.now())
	b.BookingLimitMin = &today
	if c.Mode == model.ModeEdition && e.IsPersisted() && e.BookingLimitDatetime != nil && e.BookingLimitDatetime.Before(today) {
		// an already elapsed limit stays valid on an edited entry
		past := c.startOfDay(*e.BookingLimitDatetime)
		b.BookingLimitMin = &past
	}

	if c.EventDate != nil {
		limit := *c.EventDate
		b.BookingLimitMax = &limit
	}
	if e.ActivationCodesExpirationDatetime != nil {
		limit := e.ActivationCodesExpirationDatetime.Add(-ActivationCodeValidityMargin)
		if b.BookingLimitMax == nil || limit.Before(*b.BookingLimitMax) {
			b.BookingLimitMax = &limit
		}
	}

	exp := c.MinActivationExpiration()
	if e.BookingLimitDatetime != nil {
		if after := c.startOfDay(e.BookingLimitDatetime.Add(ActivationCodeValidityMargin)); after.After(exp) {
			exp = after
		}
	}
	b.ActivationExpirationMin = &exp

	if c.Mode == model.ModeEdition && e.IsPersisted() {
		b.QuantityMin = e.BookingsQuantity
	}
	b.QuantityMax = MaxQuantity
	// persisted entries come back without their codes
	if e.HasActivationCode && len(e.ActivationCodes) > 0 {
		b.QuantityMax = len(e.ActivationCodes)
	}
	return b
}
