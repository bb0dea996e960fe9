package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as NUMERIC(20,8).
const (
	maxAmountIntegerDigits = 12
	maxAmountScale         = 8
)

// ParseAmount parses a strictly positive decimal amount that fits the order
// columns. Exponent notation is rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(raw, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q uses exponent notation", ErrInvalidAmount, raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	scale := -int(min(d.Exponent(), 0))
	if scale > maxAmountScale {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, raw, maxAmountScale)
	}
	if d.NumDigits()-scale > maxAmountIntegerDigits {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d integer digits", ErrInvalidAmount, raw, maxAmountIntegerDigits)
	}
	return d, nil
}

// ParseSettlement parses a positive settlement amount with at most two
// decimal places.
func ParseSettlement(raw string) (decimal.Decimal, error) {
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("%w: %q has more than 2 decimal places", ErrInvalidAmount, raw)
	}
	return d, nil
}

// ParseRate parses a non-negative commission component.
func ParseRate(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidParameters, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q must be non-negative", ErrInvalidParameters, raw)
	}
	return d, nil
}

// FormatSettlement renders a settlement amount with two decimal places.
func FormatSettlement(d decimal.Decimal) string {
	return d.StringFixed(2)
}
