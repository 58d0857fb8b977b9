package handler

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/fekuna/omnipos-sales-service/internal/cart"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/format"
)

type cartLineView struct {
	cart.Line
	LineTotal float64 `json:"line_total"`
	Display   string  `json:"display"`
}

type cartView struct {
	Lines         []cartLineView `json:"lines"`
	Total         float64        `json:"total"`
	TotalDiscount float64        `json:"total_discount"`
	TotalDisplay  string         `json:"total_display"`
}

func newCartView(c *cart.Cart, tag language.Tag) cartView {
	lines := c.Lines()
	view := cartView{
		Lines:         make([]cartLineView, len(lines)),
		Total:         c.Total(),
		TotalDiscount: c.TotalDiscount(),
	}
	for i, l := range lines {
		view.Lines[i] = cartLineView{
			Line:      l,
			LineTotal: l.Total(),
			Display:   fmt.Sprintf("%s x %s = %s", format.AmountFor(tag, l.Quantity), format.AmountFor(tag, l.EffectivePrice()), format.AmountFor(tag, l.Total())),
		}
	}
	view.TotalDisplay = format.AmountFor(tag, view.Total)
	return view
}

// displayTag picks the number conventions for an Accept-Language value.
func displayTag(lang string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return tags[0]
}
