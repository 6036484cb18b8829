package adapter

import (
	"context"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
)

type CartSessions interface {
	Cart(ctx context.Context, shopperID string) (*cartapp.Store, error)
}

// CartStoreReader reads the shopper's cart from their session store.
type CartStoreReader struct {
	sessions CartSessions
}

func NewCartStoreReader(sessions CartSessions) *CartStoreReader {
	return &CartStoreReader{sessions: sessions}
}

func (r *CartStoreReader) GetCart(ctx context.Context, shopperID string) ([]checkoutapp.CartLine, error) {
	store, err := r.sessions.Cart(ctx, shopperID)
	if err != nil {
		return nil, err
	}

	cart := store.Cart()
	items := make([]checkoutapp.CartLine, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, checkoutapp.CartLine{
			LineItemID: it.ID,
			ProductID:  it.Product.ID,
			Name:       it.Product.Name,
			Size:       it.Size,
			Color:      it.Color,
			Quantity:   it.Quantity,
			Price:      it.Product.Price,
		})
	}
	return items, nil
}
