package pricetable

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/offer-stocks/internal/model"
)

// MaxThingPrice caps the price of a non-event offer.
var MaxThingPrice = decimal.NewFromInt(300)

// ValidateEntries checks every entry against calc's bounds and returns the
// per-field messages; an empty result means the entries may be sent.
func ValidateEntries(calc ConstraintCalculator, entries []model.PriceTableEntry) FieldErrors {
	errs := FieldErrors{}
	for i, e := range entries {
		validateEntry(errs, calc, i, e, len(entries))
	}
	return errs
}

func validateEntry(errs FieldErrors, calc ConstraintCalculator, i int, e model.PriceTableEntry, total int) {
	if e.Price.IsNegative() {
		errs.Add(i, FieldPrice, "price must be positive or zero")
	} else if !calc.Offer.IsEvent && e.Price.GreaterThan(MaxThingPrice) {
		errs.Add(i, FieldPrice, fmt.Sprintf("price cannot exceed %s", MaxThingPrice))
	}

	if total > 1 && strings.TrimSpace(e.Label) == "" {
		errs.Add(i, FieldLabel, "label is required")
	}

	b := calc.For(e)
	if e.Quantity != nil {
		q := *e.Quantity
		switch {
		case q < 0:
			errs.Add(i, FieldQuantity, "quantity must be positive or zero")
		case q < b.QuantityMin:
			errs.Add(i, FieldQuantity, fmt.Sprintf("quantity cannot be lower than the %d bookings already made", b.QuantityMin))
		case q > b.QuantityMax:
			errs.Add(i, FieldQuantity, fmt.Sprintf("quantity cannot exceed %d", b.QuantityMax))
		}
	}
	if e.HasActivationCode && (e.Quantity == nil || *e.Quantity != len(e.ActivationCodes)) && !e.IsPersisted() {
		errs.Add(i, FieldQuantity, "quantity must match the number of activation codes")
	}

	if l := e.BookingLimitDatetime; l != nil {
		switch {
		case b.BookingLimitMin != nil && l.Before(*b.BookingLimitMin):
			errs.Add(i, FieldBookingLimitDatetime, "booking limit cannot be in the past")
		case b.BookingLimitMax != nil && l.After(*b.BookingLimitMax):
			errs.Add(i, FieldBookingLimitDatetime, "booking limit is too late for this entry")
		}
	}

	if x := e.ActivationCodesExpirationDatetime; x != nil && !e.IsPersisted() && x.Before(*b.ActivationExpirationMin) {
		errs.Add(i, FieldActivationCodesExpirationDatetime,
			fmt.Sprintf("expiration must be on or after %s", b.ActivationExpirationMin.Format("2006-01-02")))
	}
}
