package pricetable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrNoActivationCodes            = errors.New("pricetable: no activation code to apply")
	ErrDuplicateActivationCode      = errors.New("pricetable: duplicate activation code")
	ErrActivationExpirationTooEarly = errors.New("pricetable: activation code expiration is too early")
)

// CodeFile is the outcome of reading an activation code upload.  A non-empty
// ErrorMessage means Codes must not be applied.
type CodeFile struct {
	Codes        []string `json:"codes"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// ParseActivationCodeFile reads one code per line.  Surrounding blanks and
// empty lines are ignored; order is kept because it is the redemption order.
func ParseActivationCodeFile(r io.Reader) CodeFile {
	var (
		codes []string
		seen  = make(map[string]struct{})
		dups  []string
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		code := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			dups = append(dups, code)
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if err := sc.Err(); err != nil {
		return CodeFile{ErrorMessage: fmt.Sprintf("the file could not be read: %v", err)}
	}
	if len(dups) > 0 {
		return CodeFile{ErrorMessage: fmt.Sprintf("the file contains duplicated codes: %s", strings.Join(dups, ", "))}
	}
	if len(codes) == 0 {
		return CodeFile{ErrorMessage: "the file does not contain any activation code"}
	}
	return CodeFile{Codes: codes}
}

// ApplyActivationCodes sets quantity, codes, expiration and the code flag on
// entries[index] in one step.  Either every field changes or none does.
// Only entries never persisted accept codes.
func (c *Collection) ApplyActivationCodes(index int, codes []string, expiration *time.Time, now time.Time) error {
	if err := c.editable(index, FieldActivationCodes); err != nil {
		return err
	}
	if len(codes) == 0 {
		return ErrNoActivationCodes
	}
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if code == "" {
			return ErrNoActivationCodes
		}
		if _, ok := seen[code]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateActivationCode, code)
		}
		seen[code] = struct{}{}
	}
	if expiration != nil {
		calc := ConstraintCalculator{Mode: c.mode, Offer: c.offer, Location: expiration.Location(), Now: func() time.Time { return now }}
		if floor := calc.MinActivationExpiration(); expiration.Before(floor) {
			return fmt.Errorf("%w: must be on or after %s", ErrActivationExpirationTooEarly, floor.Format(time.DateOnly))
		}
	}

	next := c.entries[index].Clone()
	n := len(codes)
	next.Quantity = &n
	next.ActivationCodes = append([]string(nil), codes...)
	next.ActivationCodesExpirationDatetime = copyPtr(expiration)
	next.HasActivationCode = true
	c.entries[index] = next
	return nil
}

// ApplyCodeFile applies a parsed upload, refusing it when the parser
// reported a problem.
func (c *Collection) ApplyCodeFile(index int, file CodeFile, expiration *time.Time, now time.Time) error {
	if file.ErrorMessage != "" {
		return errors.New(file.ErrorMessage)
	}
	return c.ApplyActivationCodes(index, file.Codes, expiration, now)
}
