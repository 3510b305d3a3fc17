// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formats an amount in reais with Brazilian separators.
// e.g., 1234567.891 -> "R$ 1.234.567,89"
func FormatBRL(v float64) string {
	return "R$ " + FormatDecimal(v, 2)
}

// FormatDecimal formats v rounded half-up to places decimals, using "." for
// thousands and "," for the decimal mark. e.g., (1234.5, 2) -> "1.234,50"
func FormatDecimal(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Round(places)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(places)

	intPart, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}

	out := groupThousands(n)
	if places > 0 {
		out += "," + frac
	}
	if neg && !d.IsZero() {
		out = "-" + out
	}
	return out
}

// FormatNumber adds Brazilian thousands separators to an integer.
// e.g., 1234567 -> "1.234.567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	return groupThousands(n)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte('.')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatCompactBRL formats large amounts with short Portuguese suffixes.
// e.g., 24_200_000_000 -> "R$ 24,2 bi", 1_500_000 -> "R$ 1,5 mi"
func FormatCompactBRL(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return "R$ " + FormatDecimal(v/1_000_000_000, 1) + " bi"
	case abs >= 1_000_000:
		return "R$ " + FormatDecimal(v/1_000_000, 1) + " mi"
	case abs >= 1_000:
		return "R$ " + FormatDecimal(v/1_000, 1) + " mil"
	default:
		return FormatBRL(v)
	}
}

// FormatPercent formats a 0-1 float as a percentage string ("12,5%").
func FormatPercent(f float64) string {
	return FormatDecimal(f*100, 1) + "%"
}

// FormatYesNo renders a flag the way the dashboard labels eligibility.
func FormatYesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

// FormatEligibility returns "Elegível" or "Não elegível".
func FormatEligibility(b bool) string {
	if b {
		return "Elegível"
	}
	return "Não elegível"
}

// FormatIndex formats an index with a fixed number of decimals ("1,012").
func FormatIndex(v float64, places int) string {
	return strings.Replace(fmt.Sprintf("%.*f", places, v), ".", ",", 1)
}
