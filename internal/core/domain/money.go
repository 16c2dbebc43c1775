package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Stored amounts are DECIMAL(14,4) and percentages DECIMAL(7,4); values
// outside these bounds are rejected instead of rounded or truncated by the
// store.
const AmountScale = 4

var (
	MaxAmount  = decimal.New(1, 10)
	MaxPercent = decimal.New(1, 3)
)

// CheckAmount rejects negative values, values at or above limit and values
// with more than AmountScale decimal places.
func CheckAmount(field string, d, limit decimal.Decimal) error {
	switch {
	case d.IsNegative():
		return Invalid(field, "must not be negative")
	case d.GreaterThanOrEqual(limit):
		return Invalid(field, "must be less than "+limit.String())
	case !d.Equal(d.Truncate(AmountScale)):
		return Invalid(field, fmt.Sprintf("must have at most %d decimal places", AmountScale))
	}
	return nil
}

// ParseAmount reads a monetary amount. Blank or malformed input yields zero;
// a missing value is "no data yet", not an error. A comma decimal separator is
// accepted.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	if strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// NullAmount unwraps a nullable column value, treating NULL as zero.
func NullAmount(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// Display rounds to cents for presentation. Stored and computed values keep
// full precision.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
