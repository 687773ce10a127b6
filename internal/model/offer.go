package model

import (
	"strings"
	"time"
)

// OfferStatus is the publication state of an offer as computed by the
// backend.  Only PENDING and REJECTED offers are frozen for the operator.
type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "DRAFT"
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusInactive  OfferStatus = "INACTIVE"
	OfferStatusScheduled OfferStatus = "SCHEDULED"
	OfferStatusPublished OfferStatus = "PUBLISHED"
	OfferStatusActive    OfferStatus = "ACTIVE"
	OfferStatusSoldOut   OfferStatus = "SOLD_OUT"
	OfferStatusExpired   OfferStatus = "EXPIRED"
)

// IsEditable reports whether stocks of an offer in this status may be edited.
func (s OfferStatus) IsEditable() bool {
	return s != OfferStatusPending && s != OfferStatusRejected
}

// WizardMode tells whether the operator is creating the offer for the first
// time, editing a published one, or only viewing it.
type WizardMode string

const (
	ModeCreation WizardMode = "CREATION"
	ModeEdition  WizardMode = "EDITION"
	ModeReadOnly WizardMode = "READ_ONLY"
)

// ParseWizardMode returns the mode named by s (case-insensitive).  Unknown
// values fall back to ModeCreation, which is the most permissive for drafts.
func ParseWizardMode(s string) WizardMode {
	switch WizardMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeEdition:
		return ModeEdition
	case ModeReadOnly:
		return ModeReadOnly
	default:
		return ModeCreation
	}
}

// Provider is the external catalog feed an offer is synchronized from.
type Provider struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Offer carries the subset of offer state the stock engine reasons about.
//
// Fields:
//  ID           – offers.id
//  OwnerID      – offerer account owning the offer.
//  Status       – publication status.
//  IsEvent      – dated offer (shows, concerts) as opposed to a thing.
//  IsDigital    – offer delivered through a URL; may carry activation codes.
//  EAN          – external catalog identifier, may be empty.
//  LastProvider – synchronization source, nil for manually created offers.
//  DateCreated  – creation timestamp, reference for activation code bounds.
type Offer struct {
	ID           uint64      `json:"id"`
	OwnerID      uint64      `json:"owner_id"`
	Status       OfferStatus `json:"status"`
	IsEvent      bool        `json:"is_event"`
	IsDigital    bool        `json:"is_digital"`
	EAN          string      `json:"ean,omitempty"`
	LastProvider *Provider   `json:"last_provider,omitempty"`
	DateCreated  time.Time   `json:"date_created"`
}

// IsSynchronized reports whether the offer is fed by an external provider.
func (o Offer) IsSynchronized() bool { return o.LastProvider != nil }

// IsSynchronizedBy reports whether the offer's provider is the one named.
// Provider names are compared case-insensitively.
func (o Offer) IsSynchronizedBy(providerName string) bool {
	if o.LastProvider == nil || providerName == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(o.LastProvider.Name), strings.TrimSpace(providerName))
}

// CanHaveActivationCodes is true for digital things only; event tickets are
// never delivered as codes.
func (o Offer) CanHaveActivationCodes() bool { return o.IsDigital && !o.IsEvent }
