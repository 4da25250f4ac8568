package domain

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	currencySuffix = " ₽"
	// PriceOnRequest is shown for products without a price.
	PriceOnRequest = "По запросу"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price rounded to whole units with thousands
// separators, e.g. 5000 -> "5,000 ₽". A nil price yields PriceOnRequest.
func FormatPrice(price *float64) string {
	if price == nil {
		return PriceOnRequest
	}
	return pricePrinter.Sprintf("%d", int64(math.Round(*price))) + currencySuffix
}
