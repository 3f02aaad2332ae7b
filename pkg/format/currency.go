// Package format renders amounts for people.
package format

import (
	"strings"

	"github.com/iwvelando/cashflow-forecast/pkg/constants"
	"github.com/iwvelando/cashflow-forecast/pkg/mathutil"
)

// Currency returns an amount in cents as a currency string with a symbol and
// thousands separators (e.g., "-R$1,234.56").
func Currency(cents int64) string {
	formatted := formatPositiveCurrency(mathutil.AbsCents(cents))
	if cents < 0 {
		return "-" + constants.CurrencySymbol + formatted
	}
	return constants.CurrencySymbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
	}
	return sign + formatPositiveCurrency(mathutil.AbsCents(cents))
}

func formatPositiveCurrency(cents int64) string {
	formatted := mathutil.ToMajor(cents).StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
