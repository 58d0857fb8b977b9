// Package format rounds and renders quantities and money for display.
// Nothing here feeds back into arithmetic; stored and computed values keep
// full precision.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var english = message.NewPrinter(language.English)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// Amount renders v with two decimals and English digit grouping.
func Amount(v float64) string {
	return english.Sprintf("%.2f", Round2(v))
}

// AmountFor renders v using the number conventions of tag.
func AmountFor(tag language.Tag, v float64) string {
	return message.NewPrinter(tag).Sprintf("%.2f", Round2(v))
}

// Quantity renders fractional stock units (kg, m) the same way as money.
func Quantity(v float64) string {
	return Amount(v)
}
