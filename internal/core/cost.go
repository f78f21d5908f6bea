// Package core provides the construction schedule domain model.
//
// This file contains cost parsing and display formatting. Costs are held as
// shopspring decimals so per-day division never loses precision before
// display rounding.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCost converts a form-submitted decimal string to a cost value.
//
// It accepts dot (12345.67) and comma (12345,67) decimal separators as well
// as comma-grouped thousands (12,500.50). A lone comma with no dot is read
// as a decimal separator; commas alongside a dot, or several commas, are
// group separators and stripped.
// Returns ErrInvalidCost for anything that is not a strictly positive number.
func ParseCost(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidCost
	}
	if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidCost
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidCost
	}
	return d, nil
}

// FormatCost renders a cost for chart annotations and page totals:
// rounded to a whole number with thousands separators and no currency
// symbol, e.g. 12345.6 -> "12,346".
func FormatCost(d decimal.Decimal) string {
	s := d.Round(0).StringFixed(0)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
