package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney -> "$1,234.50 MXN" style, selalu 2 desimal
func FormatMoney(amount decimal.Decimal, currency string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	fixed := amount.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	integerPart := parts[0]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	out := sign + "$" + strings.Join(groups, ",") + "." + parts[1]
	if currency != "" {
		out += " " + currency
	}
	return out
}
