// Package pricetable holds the editing engine for an offer's price table:
// which fields may be edited, how entries are added, removed and reset, how
// activation codes are attached, how destructive removals are confirmed, and
// which bounds each field must respect.  Everything here is synchronous and
// owned by a single editing context.
package pricetable

import "fmt"

// Field names an editable attribute of a PriceTableEntry.
type Field int

const (
	FieldLabel Field = iota
	FieldPrice
	FieldQuantity
	FieldBookingLimitDatetime
	FieldActivationCodes
	FieldActivationCodesExpirationDatetime
	FieldPriceCategory
)

var fieldNames = map[Field]string{
	FieldLabel:                             "label",
	FieldPrice:                             "price",
	FieldQuantity:                          "quantity",
	FieldBookingLimitDatetime:              "bookingLimitDatetime",
	FieldActivationCodes:                   "activationCodes",
	FieldActivationCodesExpirationDatetime: "activationCodesExpirationDatetime",
	FieldPriceCategory:                     "priceCategoryId",
}

// Fields lists every editable field in display order.
var Fields = []Field{
	FieldLabel, FieldPrice, FieldQuantity, FieldBookingLimitDatetime,
	FieldActivationCodes, FieldActivationCodesExpirationDatetime, FieldPriceCategory,
}

func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField maps a wire name back to a Field.
func ParseField(name string) (Field, bool) {
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// MarshalText renders the wire name so Field can key JSON maps.
func (f Field) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText parses a wire name.
func (f *Field) UnmarshalText(b []byte) error {
	v, ok := ParseField(string(b))
	if !ok {
		return fmt.Errorf("unknown field %q", string(b))
	}
	*f = v
	return nil
}
