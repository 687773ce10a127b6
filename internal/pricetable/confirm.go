package pricetable

import "errors"

var (
	// ErrConfirmationPending is returned when a removal is requested while
	// another one still waits for the operator's answer.  The pending request
	// is kept; the new one is rejected.
	ErrConfirmationPending = errors.New("pricetable: a removal is already awaiting confirmation")
	// ErrNoPendingConfirmation is returned by Confirm when nothing is pending.
	ErrNoPendingConfirmation = errors.New("pricetable: no removal awaiting confirmation")
)

// ConfirmationState is either Idle or AwaitingConfirmation.
type ConfirmationState interface {
	confirmationState()
}

// Idle means no destructive removal is pending.
type Idle struct{}

// AwaitingConfirmation holds the entry whose removal would discard bookings.
type AwaitingConfirmation struct {
	EntryIndex int
}

func (Idle) confirmationState() {}
func (AwaitingConfirmation) confirmationState() {}

// DeletionFlow gates the removal of entries that already have bookings.  At
// most one entry can be awaiting confirmation.  The zero value is Idle.
type DeletionFlow struct {
	state ConfirmationState
}

// State returns the current state.
func (f *DeletionFlow) State() ConfirmationState {
	if f.state == nil {
		return Idle{}
	}
	return f.state
}

// Pending returns the index awaiting confirmation, if any.
func (f *DeletionFlow) Pending() (int, bool) {
	if s, ok := f.State().(AwaitingConfirmation); ok {
		return s.EntryIndex, true
	}
	return 0, false
}

// Request moves Idle to AwaitingConfirmation(index).
func (f *DeletionFlow) Request(index int) error {
	if _, pending := f.Pending(); pending {
		return ErrConfirmationPending
	}
	f.state = AwaitingConfirmation{EntryIndex: index}
	return nil
}

// Confirm returns to Idle and hands back the index to remove.
func (f *DeletionFlow) Confirm() (int, error) {
	idx, ok := f.Pending()
	if !ok {
		return 0, ErrNoPendingConfirmation
	}
	f.state = Idle{}
	return idx, nil
}

// Cancel returns to Idle without touching anything.
func (f *DeletionFlow) Cancel() { f.state = Idle{} }

// entryRemoved keeps the pending index pointing at the same entry after a
// direct removal elsewhere in the collection.
func (f *DeletionFlow) entryRemoved(removed int) {
	idx, ok := f.Pending()
	if !ok {
		return
	}
	switch {
	case removed == idx:
		f.state = Idle{}
	case removed < idx:
		f.state = AwaitingConfirmation{EntryIndex: idx - 1}
	}
}
