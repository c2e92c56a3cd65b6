// Package types provides common value types used across boxrate.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultCurrency is the store currency when none is configured.
const DefaultCurrency = "usd"

// Money represents a monetary value in cents.
// All arithmetic is integer-only. A store prices in a single currency, so
// operations between different currencies are a programming error and panic.
//
// Examples:
//   - USD(15300) = $153.00
//   - USD(200)   = $2.00
type Money struct {
	Amount   int64  `json:"amount"`   // cents
	Currency string `json:"currency"` // ISO 4217 lowercase
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: DefaultCurrency} }

// Cents creates a Money value in the given currency.
func Cents(cents int64, currency string) Money {
	return Money{Amount: cents, Currency: normalizeCurrency(currency)}
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Currency: normalizeCurrency(currency)} }

// ParseMajor parses a decimal major-unit string such as "51", "51.5" or
// "-2.05" into Money. More than two fractional digits is an error.
func ParseMajor(s, currency string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return Money{}, fmt.Errorf("money: parse %q: empty amount", s)
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return Money{}, fmt.Errorf("money: parse %q: more than two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}

	amount := major*100 + minor
	if neg {
		amount = -amount
	}
	return Cents(amount, currency), nil
}

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// Divide divides the Money by a divisor, rounding half away from zero to
// the nearest cent.
func (m Money) Divide(divisor int64) Money {
	if divisor == 0 {
		panic("money: division by zero")
	}
	q := m.Amount / divisor
	r := m.Amount % divisor
	if r < 0 {
		r = -r
	}
	d := divisor
	if d < 0 {
		d = -d
	}
	if 2*r >= d {
		if (m.Amount < 0) != (divisor < 0) {
			q--
		} else {
			q++
		}
	}
	return Money{Amount: q, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values have the same amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// FormatMajor returns the major unit string without currency symbol,
// e.g. "51.00" for USD(5100).
func (m Money) FormatMajor() string {
	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// String returns a human-readable string with currency symbol.
func (m Money) String() string {
	if m.Currency == DefaultCurrency {
		return "$" + m.FormatMajor()
	}
	return strings.ToUpper(m.Currency) + " " + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = normalizeCurrency(raw.Currency)
	return nil
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func normalizeCurrency(currency string) string {
	if currency == "" {
		return DefaultCurrency
	}
	return strings.ToLower(currency)
}

// Sum calculates the sum of Money values in the given currency.
func Sum(currency string, values ...Money) Money {
	result := Zero(currency)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
