package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSnapshot = errors.New("invalid cart snapshot")

type lineKey struct {
	productID, size, color string
}

// Validate checks a cart read from outside the reducer: line identity,
// quantities, prices, and that every derived field agrees with the items.
func Validate(c Cart) error {
	ids := make(map[string]struct{}, len(c.Items))
	keys := make(map[lineKey]struct{}, len(c.Items))

	for i, li := range c.Items {
		switch {
		case strings.TrimSpace(li.ID) == "":
			return fmt.Errorf("%w: line %d has no id", ErrInvalidSnapshot, i)
		case strings.TrimSpace(li.Product.ID) == "":
			return fmt.Errorf("%w: line %s has no product id", ErrInvalidSnapshot, li.ID)
		case li.Quantity < 1:
			return fmt.Errorf("%w: line %s has quantity %d", ErrInvalidSnapshot, li.ID, li.Quantity)
		case li.Product.Price.IsNegative():
			return fmt.Errorf("%w: line %s has a negative price", ErrInvalidSnapshot, li.ID)
		}

		if _, dup := ids[li.ID]; dup {
			return fmt.Errorf("%w: duplicate line id %s", ErrInvalidSnapshot, li.ID)
		}
		ids[li.ID] = struct{}{}

		k := lineKey{li.Product.ID, li.Size, li.Color}
		if _, dup := keys[k]; dup {
			return fmt.Errorf("%w: duplicate line for product %s", ErrInvalidSnapshot, li.Product.ID)
		}
		keys[k] = struct{}{}
	}

	want := ComputeTotals(c.Items)
	if !c.Subtotal.Equal(want.Subtotal) || !c.Shipping.Equal(want.Shipping) ||
		!c.Total.Equal(want.Total) || c.ItemCount != want.ItemCount {
		return fmt.Errorf("%w: totals do not match items", ErrInvalidSnapshot)
	}
	return nil
}
