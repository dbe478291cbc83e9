package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatDecimalBR renders an amount the pt-BR way: "1.234,56", "-10,00".
func FormatDecimalBR(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := grouped.String() + "," + frac
	if d.IsNegative() && !d.Round(2).IsZero() {
		out = "-" + out
	}
	return out
}

// FormatBRL is FormatDecimalBR with the currency symbol.
func FormatBRL(d decimal.Decimal) string {
	if d.IsNegative() && !d.Round(2).IsZero() {
		return "-R$ " + FormatDecimalBR(d.Abs())
	}
	return "R$ " + FormatDecimalBR(d)
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
