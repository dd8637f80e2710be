package i18n

import (
	"strings"

	"github.com/richxcame/rider-client/pkg/money"
)

// symbol placement per ISO 4217 code; codes not listed print as "12.50 XYZ"
var currencySymbols = map[string]struct {
	symbol string
	before bool
}{
	"USD": {"$", true},
	"EUR": {"€", true},
	"GBP": {"£", true},
	"TRY": {"₺", true},
	"RUB": {"₽", false},
	"KZT": {"₸", false},
	"TMT": {"TMT", false},
	"AED": {"AED", false},
}

// FormatAmount renders a minor-unit amount for display, e.g. "$15.50" or "150.00 TMT".
// Negative amounts keep the sign in front of the symbol.
func FormatAmount(amount money.Amount, currencyCode string) string {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}

	info, ok := currencySymbols[code]
	switch {
	case !ok:
		return sign + amount.String() + " " + code
	case info.before:
		return sign + info.symbol + amount.String()
	default:
		return sign + amount.String() + " " + info.symbol
	}
}
