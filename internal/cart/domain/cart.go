package domain

import (
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShipping          = decimal.NewFromInt(10)
)

// LineItem is one product/size/color combination in the cart. Size and
// Color are empty when the product has no variant.
type LineItem struct {
	ID       string         `json:"id"`
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
	Size     string         `json:"size,omitempty"`
	Color    string         `json:"color,omitempty"`
}

func (li LineItem) Matches(productID, size, color string) bool {
	return li.Product.ID == productID && li.Size == size && li.Color == color
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart holds line items in insertion order. Subtotal, Shipping, Total and
// ItemCount are derived from Items by ComputeTotals.
type Cart struct {
	Items     []LineItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func Empty() Cart {
	return Cart{Items: []LineItem{}}
}

// IsEmpty reports whether there is nothing worth persisting.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0 && c.Subtotal.IsZero()
}

// Find returns the line with the given id.
func (c Cart) Find(lineID string) (LineItem, bool) {
	for _, li := range c.Items {
		if li.ID == lineID {
			return li, true
		}
	}
	return LineItem{}, false
}

// Clone deep-copies the cart so callers can't reach the store's slices.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]LineItem, len(c.Items))
	for i, li := range c.Items {
		li.Product = li.Product.Clone()
		out.Items[i] = li
	}
	return out
}

// Shipping is free at or above the threshold and for an empty subtotal.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// ComputeTotals recomputes every derived field from items.
func ComputeTotals(items []LineItem) Cart {
	subtotal := decimal.Zero
	count := 0
	for _, li := range items {
		subtotal = subtotal.Add(li.LineTotal())
		count += li.Quantity
	}

	shipping := Shipping(subtotal)
	return Cart{
		Items:     items,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
		ItemCount: count,
	}
}
