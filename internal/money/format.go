// Package money renders full-precision amounts for display. Rounding happens
// here and nowhere else.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/noah-isme/showcase-api/internal/pricing"
)

var printers = map[pricing.Currency]*message.Printer{
	pricing.GBP: message.NewPrinter(language.BritishEnglish),
	pricing.USD: message.NewPrinter(language.AmericanEnglish),
	pricing.EUR: message.NewPrinter(language.MustParse("en-IE")),
}

// Round rounds half away from zero to whole currency units.
func Round(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

// Format renders an amount as e.g. "£2,699".
func Format(c pricing.Currency, amount decimal.Decimal) string {
	return FormatUnits(c, Round(amount))
}

// Supported reports whether c has a printer.
func Supported(c pricing.Currency) bool {
	_, ok := printers[c]
	return ok
}

// FormatUnits renders an already rounded amount. An unsupported currency
// renders as "" so no price is shown under the wrong symbol.
func FormatUnits(c pricing.Currency, units int64) string {
	p, ok := printers[c]
	if !ok {
		return ""
	}
	if units < 0 {
		return "-" + c.Symbol() + p.Sprintf("%d", -units)
	}
	return c.Symbol() + p.Sprintf("%d", units)
}

// FormatExVAT appends the "+VAT" marker when the currency carries VAT.
func FormatExVAT(c pricing.Currency, amount decimal.Decimal) string {
	s := Format(c, amount)
	if c.VATRate().IsPositive() {
		return s + " +VAT"
	}
	return s
}

// Display is the rounded form of a pricing.Amount.
type Display struct {
	ExVAT        int64  `json:"ex_vat"`
	IncVAT       int64  `json:"inc_vat"`
	Text         string `json:"text"`
	TextIncVAT   string `json:"text_inc_vat"`
	TextWithMark string `json:"text_with_vat_mark"`
}

// Present rounds both sides of an amount once.
func Present(c pricing.Currency, a pricing.Amount) Display {
	return Display{
		ExVAT:        Round(a.ExVAT),
		IncVAT:       Round(a.IncVAT),
		Text:         Format(c, a.ExVAT),
		TextIncVAT:   Format(c, a.IncVAT),
		TextWithMark: FormatExVAT(c, a.ExVAT),
	}
}
