package app

import (
	"context"
	"errors"
	"fmt"

	cartdomain "github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/checkout/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
)

type CartReader interface {
	GetCart(ctx context.Context, shopperID string) ([]CartLine, error)
}

type CartLine struct {
	LineItemID string
	ProductID  string
	Name       string
	Size       string
	Color      string
	Quantity   int
	Price      decimal.Decimal
}

// CatalogReader returns ErrProductNotFound for products that no longer
// exist.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

type Service struct {
	Cart    CartReader
	Catalog CatalogReader

	maxConcurrent int
}

func NewService(cart CartReader, catalog CatalogReader, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	return &Service{
		Cart:          cart,
		Catalog:       catalog,
		maxConcurrent: maxConcurrent,
	}
}

// Quote re-prices the shopper's cart against the catalog.
func (s *Service) Quote(ctx context.Context, shopperID string) (domain.Quote, error) {
	items, err := s.Cart.GetCart(ctx, shopperID)
	if err != nil {
		return domain.Quote{}, err
	}

	if len(items) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		g.Go(func() error {
			it := items[idx]
			line := domain.QuoteLine{
				LineItemID: it.LineItemID,
				ProductID:  it.ProductID,
				Name:       it.Name,
				Size:       it.Size,
				Color:      it.Color,
				Quantity:   it.Quantity,
				CartPrice:  it.Price,
			}

			product, err := s.Catalog.GetProduct(ctx, it.ProductID)
			switch {
			case errors.Is(err, ErrProductNotFound):
				line.Unavailable = true
				line.UnitPrice = decimal.Zero
				line.LineTotal = decimal.Zero
			case err != nil:
				return fmt.Errorf("failed to get product %s: %w", it.ProductID, err)
			default:
				line.Name = product.Name
				line.UnitPrice = product.Price
				line.LineTotal = product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
				line.PriceChanged = !product.Price.Equal(it.Price)
			}

			lines[idx] = line
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	subtotal := decimal.Zero
	count := 0
	for _, line := range lines {
		if line.Unavailable {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal)
		count += line.Quantity
	}

	shipping := cartdomain.Shipping(subtotal)
	return domain.Quote{
		Lines:     lines,
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
		ItemCount: count,
	}, nil
}
