package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a currency value. It encodes as a bare JSON number and accepts
// either a number or a numeric string on input.
type Amount struct {
	decimal.Decimal
}

// NewAmount parses s as a decimal amount.
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{Decimal: d}, nil
}

// AmountFromFloat is a convenience for tests and fixtures.
func AmountFromFloat(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// Display renders the amount as dollars with two decimals, e.g. "$12.50".
func (a Amount) Display() string {
	return "$" + a.StringFixed(2)
}

// MarshalJSON writes the amount without quotes.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts 12.5 and "12.5".
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}
