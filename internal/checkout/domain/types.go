package domain

import "github.com/shopspring/decimal"

// QuoteLine is one cart line priced against the live catalog. CartPrice is
// what the shopper saw when adding the item.
type QuoteLine struct {
	LineItemID   string          `json:"lineItemId"`
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Size         string          `json:"size,omitempty"`
	Color        string          `json:"color,omitempty"`
	Quantity     int             `json:"quantity"`
	CartPrice    decimal.Decimal `json:"cartPrice"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	PriceChanged bool            `json:"priceChanged"`
	Unavailable  bool            `json:"unavailable"`
}

// Quote totals exclude unavailable lines.
type Quote struct {
	Lines     []QuoteLine     `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// HasChanges reports whether any line differs from what the cart shows.
func (q Quote) HasChanges() bool {
	for _, ln := range q.Lines {
		if ln.PriceChanged || ln.Unavailable {
			return true
		}
	}
	return false
}
