package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of fractional digits a Currency keeps
const CurrencyScale = 4

// Currency is a fixed-point amount with four fractional digits.
// All transactions are assumed to be in the same currency.
type Currency struct {
	value decimal.Decimal
}

// Zero returns a zero amount
func Zero() Currency {
	return Currency{value: decimal.Zero}
}

// ParseCurrency parses a decimal string such as "1.5" or "0.0001".
// Digits past the fourth fractional place are rounded half away from zero.
func ParseCurrency(s string) (Currency, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Currency{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Currency{value: d.Round(CurrencyScale)}, nil
}

// MustParseCurrency is like ParseCurrency but panics on invalid input.
// Intended for constants and tests.
func MustParseCurrency(s string) Currency {
	c, err := ParseCurrency(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Add returns c + other
func (c Currency) Add(other Currency) Currency {
	return Currency{value: c.value.Add(other.value)}
}

// Sub returns c - other
func (c Currency) Sub(other Currency) Currency {
	return Currency{value: c.value.Sub(other.value)}
}

// Cmp compares c and other, returning -1, 0 or +1
func (c Currency) Cmp(other Currency) int {
	return c.value.Cmp(other.value)
}

// Equal reports whether c and other represent the same amount
func (c Currency) Equal(other Currency) bool {
	return c.value.Equal(other.value)
}

// IsNegative reports whether c < 0
func (c Currency) IsNegative() bool {
	return c.value.IsNegative()
}

// IsZero reports whether c == 0
func (c Currency) IsZero() bool {
	return c.value.IsZero()
}

// Float64 returns the nearest float64, for charts and other lossy consumers
func (c Currency) Float64() float64 {
	f, _ := c.value.Float64()
	return f
}

// String formats c with exactly four fractional digits
func (c Currency) String() string {
	return c.value.StringFixed(CurrencyScale)
}

// MarshalText implements encoding.TextMarshaler
func (c Currency) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Currency) UnmarshalText(text []byte) error {
	parsed, err := ParseCurrency(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
