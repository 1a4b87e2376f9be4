package pricing

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"proposal-generator/internal/placeholder"
)

var printer = message.NewPrinter(language.English)

// Largest cent count a float64 holds exactly; int64 conversion is safe below it.
const maxExactCents = 1 << 53

// FormatAmount renders v with thousands separators. Whole amounts have no
// decimals, anything else is shown with two.
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.Abs(v) >= maxExactCents/100 {
		return printer.Sprintf("%.0f", v)
	}
	cents := int64(math.Round(math.Abs(v) * 100))
	sign := ""
	if v < 0 && cents != 0 {
		sign = "-"
	}
	whole, frac := cents/100, cents%100
	if frac == 0 {
		return sign + printer.Sprintf("%d", whole)
	}
	return sign + printer.Sprintf("%d", whole) + fmt.Sprintf(".%02d", frac)
}

// FormatLineItem is FormatAmount except zero renders as an empty string, so
// the row holding the item is removed after substitution.
func FormatLineItem(v float64) string {
	if v == 0 {
		return ""
	}
	return FormatAmount(v)
}

func FormatPercent(v float64) string {
	return FormatAmount(v)
}

// Placeholders returns the derived amounts as tokens. The currency glyph is
// always included.
func (b Breakdown) Placeholders() *placeholder.Map {
	m := placeholder.NewMap()
	m.Set(TokenCurrency, b.Currency.Symbol())
	for _, line := range b.Lines {
		m.Set(line.Token, FormatAmount(line.Amount))
	}
	switch b.Strategy {
	case MaintenanceOnServices, TotalIncludesMaintenance, MarketingTax:
		m.Set(TokenTaxPercentage, FormatPercent(b.TaxPercent))
	}
	return m
}
