package participant

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xraph/settle/id"
)

// Participant is one person sharing the expense. Values are immutable once
// created; to change an amount, remove the participant and add it again.
//
// Key is an opaque identifier. New participants get a "ptc" TypeID, but
// keys loaded from a snapshot are kept verbatim whatever their shape.
type Participant struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"` // Paid out of pocket, >= 0
	Color  Color   `json:"color"`
}

// NewKey returns a fresh participant key.
func NewKey() string { return id.NewParticipantID().String() }

// Color is a display tag in "#RRGGBB" form.
type Color string

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Valid reports whether c is a "#RRGGBB" hex color.
func (c Color) Valid() bool { return hexColor.MatchString(string(c)) }

// String implements fmt.Stringer.
func (c Color) String() string { return string(c) }

var (
	// ErrEmptyName is returned by ParseName for blank names.
	ErrEmptyName = errors.New("participant: empty name")

	// ErrInvalidAmount is returned by ParseAmount for text that is not a
	// finite, non-negative number.
	ErrInvalidAmount = errors.New("participant: invalid amount")
)

// ParseName validates a display name. Whitespace-only names are empty.
func ParseName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// ParseAmount parses user-entered amount text such as "150", "99.5" or "1e3".
func ParseAmount(text string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, text)
	}

	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, text)
	}
	return v, nil
}

// Validate checks the invariants a stored participant must satisfy.
func (p Participant) Validate() error {
	switch {
	case p.Key == "":
		return errors.New("participant: missing key")
	case strings.TrimSpace(p.Name) == "":
		return ErrEmptyName
	case math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) || p.Amount < 0:
		return fmt.Errorf("%w: %v", ErrInvalidAmount, p.Amount)
	case !p.Color.Valid():
		return fmt.Errorf("participant: invalid color %q", p.Color)
	}
	return nil
}
