package core

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// maxAmount caps parsed amounts well below the int64 cents range.
var maxAmount = decimal.New(1, 13)

// Money is an amount stored as integer cents.
type Money struct {
	Cents int64
}

// Validate reports whether the amount is usable as a monthly cost.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Decimal returns the amount as an exact decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the plain amount with exactly two decimals, e.g. "150.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount for display with thousands grouping and two
// decimals, prefixed by the currency symbol: Format("$") -> "$1,234.50".
func (m Money) Format(symbol string) string {
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	f, _ := decimal.New(cents, -2).Float64()
	return sign + symbol + humanize.FormatFloat("#,###.##", f)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// MarshalJSON encodes the amount as a fixed two-decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("decode money %q: %w", s, err)
	}
	*m = parsed
	return nil
}

// ParseAmount converts user input to Money.
//
// Either "." or "," is accepted as the decimal separator, but not both, so
// grouped input such as "1,234.50" is rejected. Values are rounded half-up
// to cents. Zero is a valid monthly cost; negatives are not.
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> ErrNegativeAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			return Money{}, ErrInvalidAmount
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	negative := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	if !isPlainDecimal(digits) {
		return Money{}, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if negative && !d.IsZero() {
		return Money{}, ErrNegativeAmount
	}
	if d.GreaterThan(maxAmount) {
		return Money{}, ErrInvalidAmount
	}

	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// isPlainDecimal accepts digits with at most one dot and at least one digit.
// It keeps exponents and signs out of decimal.NewFromString.
func isPlainDecimal(s string) bool {
	seenDigit := false
	seenDot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		default:
			return false
		}
	}
	return seenDigit
}
