package pricetable

import "github.com/iliyamo/offer-stocks/internal/model"

// DefaultExemptProvider is the partner ticketing feed whose offers remain
// fully editable even though they are synchronized.
const DefaultExemptProvider = "Allociné"

// FieldPolicy is derived from offer state and gates every mutation.
type FieldPolicy struct {
	// AllDisabled freezes every field: the offer is awaiting moderation or
	// rejected, or another published offer already uses the same EAN.
	AllDisabled bool `json:"all_disabled"`
	// QuantityOnlyEditable restricts edits to the quantity because a
	// non-exempt provider overwrites everything else.
	QuantityOnlyEditable bool `json:"quantity_only_editable"`
}

// ComputeFieldPolicy derives the policy with the default exempt provider.
func ComputeFieldPolicy(offer model.Offer, hasConflictingPublishedOfferWithSameEAN bool) FieldPolicy {
	return ComputeFieldPolicyWithExemption(offer, hasConflictingPublishedOfferWithSameEAN, DefaultExemptProvider)
}

// ComputeFieldPolicyWithExemption is ComputeFieldPolicy with a configurable
// exempt provider name.
func ComputeFieldPolicyWithExemption(offer model.Offer, hasConflictingPublishedOfferWithSameEAN bool, exemptProvider string) FieldPolicy {
	return FieldPolicy{
		AllDisabled:          !offer.Status.IsEditable() || hasConflictingPublishedOfferWithSameEAN,
		QuantityOnlyEditable: offer.IsSynchronized() && !offer.IsSynchronizedBy(exemptProvider),
	}
}

// CanMutate reports whether any structural change (add, remove, reset,
// upload) is allowed at all.
func (p FieldPolicy) CanMutate() bool { return !p.AllDisabled && !p.QuantityOnlyEditable }

// IsFieldDisabled reports whether field f of entries[index] is read-only.
// The entry count matters for the label: a sole entry carries the single
// entry label and has nothing to be distinguished from.
func (p FieldPolicy) IsFieldDisabled(offer model.Offer, entries []model.PriceTableEntry, index int, f Field) bool {
	if p.AllDisabled {
		return true
	}
	if p.QuantityOnlyEditable && f != FieldQuantity {
		return true
	}
	if index < 0 || index >= len(entries) {
		return true
	}
	e := entries[index]
	switch f {
	case FieldLabel:
		return !offer.IsEvent || len(entries) == 1
	case FieldQuantity, FieldActivationCodesExpirationDatetime:
		return e.HasActivationCode
	case FieldActivationCodes:
		return !offer.CanHaveActivationCodes() || e.IsPersisted() || e.HasActivationCode
	case FieldPriceCategory:
		return !offer.IsEvent
	}
	return false
}

// ReadOnlyFields lists the disabled fields of entries[index].
func (p FieldPolicy) ReadOnlyFields(offer model.Offer, entries []model.PriceTableEntry, index int) []Field {
	var out []Field
	for _, f := range Fields {
		if p.IsFieldDisabled(offer, entries, index, f) {
			out = append(out, f)
		}
	}
	return out
}
