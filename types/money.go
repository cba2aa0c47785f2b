// Package types provides the value types shared across Tally: money,
// calendar months and civil dates.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in hundredths of the book's currency.
// All arithmetic is integer-only; floats appear only at the JSON boundary.
//
// Examples:
//   - Money(10000) = 100.00
//   - Money(9950)  = 99.50
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// MaxMajor bounds the magnitude of amounts read from decimals so that the
// hundredths still fit in an int64.
const MaxMajor = 1e15

// FromMajor converts a decimal amount (e.g. 99.5) into Money, rounding to
// the nearest hundredth. NaN becomes zero and magnitudes beyond MaxMajor
// are clamped to it.
func FromMajor(major float64) Money {
	switch {
	case math.IsNaN(major):
		return Zero
	case major > MaxMajor:
		major = MaxMajor
	case major < -MaxMajor:
		major = -MaxMajor
	}
	return Money(math.Round(major * 100))
}

// ParseMoney parses a decimal string such as "100", "99.5" or "12.75".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, fmt.Errorf("money: parse %q: not a finite number", s)
	}
	return FromMajor(f), nil
}

// Major returns the amount as a decimal number.
func (m Money) Major() float64 { return float64(m) / 100 }

// Add adds two amounts.
func (m Money) Add(other Money) Money { return m + other }

// Subtract subtracts another amount.
func (m Money) Subtract(other Money) Money { return m - other }

// Max returns the larger of two amounts.
func (m Money) Max(other Money) Money {
	if m > other {
		return m
	}
	return other
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m == 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m < 0 }

// FormatMajor returns the amount with two decimals and no symbol: "49.00".
func (m Money) FormatMajor() string {
	abs := int64(m)
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// String implements fmt.Stringer.
func (m Money) String() string { return m.FormatMajor() }

// Format renders the amount with the symbol for currency:
// "$49.00", "E£150.00", "SAR 20.00".
func (m Money) Format(currency string) string {
	return currencySymbol(currency) + m.FormatMajor()
}

// MarshalJSON writes the amount as a plain decimal number (100, 99.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Major(), 'f', -1, 64)), nil
}

// UnmarshalJSON reads a decimal number, a numeric string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("money: %w", err)
		}
		parsed, err := ParseMoney(s)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = FromMajor(f)
	return nil
}

// Sum adds up all values.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total += v
	}
	return total
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"egp": "E£",
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"cad": "C$",
		"aud": "A$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	if currency == "" {
		return ""
	}
	return strings.ToUpper(currency) + " "
}
