// Package utils carries small helpers shared by the broker parsers.
package utils

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// NormalizeCurrency maps a broker's currency spelling to an ISO 4217
// alpha code. Russian brokers still print the legacy RUR code. Codes
// unknown to the ISO registry pass through unchanged, since derivative
// quotes use synthetic units such as PNT.
func NormalizeCurrency(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "RUR" {
		return money.RUB
	}
	if c := money.GetCurrency(normalized); c != nil {
		return c.Code
	}
	return normalized
}
