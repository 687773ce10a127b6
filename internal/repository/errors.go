// Package repository is the persistence side of the stock engine: offers,
// their price categories, their stocks and activation codes.  The sentinel
// values below let the service and handler layers tell failure scenarios
// apart.  ErrForbidden means the caller does not own the offer, ErrConflict
// means the current state of the stocks forbids the operation.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on an
// offer they do not own.  Handlers translate this into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting the stock of an event that
// ended more than 48h ago.  Handlers translate this into an HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrOfferNotFound indicates that the offer does not exist.
var ErrOfferNotFound = errors.New("offer not found")

// ErrStockNotFound indicates that an updated stock does not exist, or
// belongs to another offer, or was deleted.
var ErrStockNotFound = errors.New("stock not found")
