package awards

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount the way prizes are shown, e.g. "R$ 1.500,00".
func FormatBRL(amount float64) string {
	return brl.Sprintf("R$ %.2f", amount)
}
