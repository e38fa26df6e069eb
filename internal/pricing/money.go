package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const CurrencySymbol = "₹"

// FormatMoney renders paise as rupees: whole amounts without decimals
// ("₹1000"), fractional amounts with two ("₹10.50").
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if cents%100 == 0 {
		return fmt.Sprintf("%s%s%d", sign, CurrencySymbol, cents/100)
	}
	return sign + CurrencySymbol + decimal.New(cents, -2).StringFixed(2)
}
