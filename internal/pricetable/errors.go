package pricetable

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EntryField addresses one field of one entry.
type EntryField struct {
	Index int
	Field Field
}

// FieldErrors maps an entry field to its message.
type FieldErrors map[EntryField]string

// Add records msg for (index, f); the first message wins.
func (fe FieldErrors) Add(index int, f Field, msg string) {
	k := EntryField{Index: index, Field: f}
	if _, ok := fe[k]; !ok {
		fe[k] = msg
	}
}

// Get returns the message recorded for (index, f).
func (fe FieldErrors) Get(index int, f Field) (string, bool) {
	msg, ok := fe[EntryField{Index: index, Field: f}]
	return msg, ok
}

// ForEntry returns the errors of one entry.
func (fe FieldErrors) ForEntry(index int) map[Field]string {
	out := make(map[Field]string)
	for k, msg := range fe {
		if k.Index == index {
			out[k.Field] = msg
		}
	}
	return out
}

// FieldError is the flattened form of one FieldErrors item.
type FieldError struct {
	Index   int    `json:"index"`
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// List flattens the map, ordered by entry then field.
func (fe FieldErrors) List() []FieldError {
	out := make([]FieldError, 0, len(fe))
	for k, msg := range fe {
		out = append(out, FieldError{Index: k.Index, Field: k.Field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (fe FieldErrors) String() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe.List() {
		parts = append(parts, fmt.Sprintf("entry %d %s: %s", e.Index, e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// ValidationError is raised before any network call.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string { return "pricetable: invalid entries: " + e.Fields.String() }

// RejectionError is a structured refusal from the backend.  Fields are
// mapped onto entries, Global messages are shown at page level.
type RejectionError struct {
	Fields FieldErrors
	Global []string
}

func (e *RejectionError) Error() string {
	var b strings.Builder
	b.WriteString("pricetable: rejected")
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(e.Fields.String())
	}
	if len(e.Global) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Global, "; "))
	}
	return b.String()
}

// ErrorKind groups errors by how they are surfaced.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindRejection
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindRejection:
		return "rejection"
	}
	return "transport"
}

// Classify sorts an error into the taxonomy.  Anything without structured
// field data is a transport error.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrEditWithBookingsNeedsConfirmation) {
		return KindValidation
	}
	var re *RejectionError
	if errors.As(err, &re) {
		return KindRejection
	}
	return KindTransport
}
