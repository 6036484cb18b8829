package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/google/uuid"
)

var ErrInvalidSnapshot = errors.New("invalid favorites snapshot")

type Item struct {
	ID      string         `json:"id"`
	Product domain.Product `json:"product"`
	AddedAt time.Time      `json:"addedAt"`
}

// Favorites holds at most one item per product, in the order they were added.
type Favorites struct {
	Items     []Item `json:"items"`
	ItemCount int    `json:"itemCount"`
}

func Empty() Favorites {
	return Favorites{Items: []Item{}}
}

func (f Favorites) IsEmpty() bool { return len(f.Items) == 0 }

func (f Favorites) Contains(productID string) bool {
	for _, it := range f.Items {
		if it.Product.ID == productID {
			return true
		}
	}
	return false
}

func (f Favorites) Clone() Favorites {
	out := Favorites{Items: make([]Item, len(f.Items)), ItemCount: f.ItemCount}
	for i, it := range f.Items {
		it.Product = it.Product.Clone()
		out.Items[i] = it
	}
	return out
}

func withItems(items []Item) Favorites {
	return Favorites{Items: items, ItemCount: len(items)}
}

type Action interface {
	isAction()
}

// Add is a no-op when the product is already a favorite.
type Add struct {
	Product domain.Product
}

type Remove struct {
	ProductID string
}

type Clear struct{}

type Load struct {
	Snapshot Favorites
}

func (Add) isAction()    {}
func (Remove) isAction() {}
func (Clear) isAction()  {}
func (Load) isAction()   {}

type Reducer struct {
	NewID func() string
	Now   func() time.Time
}

func NewReducer() Reducer {
	return Reducer{
		NewID: uuid.NewString,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r Reducer) Reduce(state Favorites, action Action) Favorites {
	switch a := action.(type) {
	case Add:
		if state.Contains(a.Product.ID) {
			return state
		}
		items := make([]Item, len(state.Items), len(state.Items)+1)
		copy(items, state.Items)
		items = append(items, Item{
			ID:      r.NewID(),
			Product: a.Product.Clone(),
			AddedAt: r.Now(),
		})
		return withItems(items)
	case Remove:
		items := make([]Item, 0, len(state.Items))
		for _, it := range state.Items {
			if it.Product.ID != a.ProductID {
				items = append(items, it)
			}
		}
		return withItems(items)
	case Clear:
		return Empty()
	case Load:
		return withItems(a.Snapshot.Clone().Items)
	default:
		return state
	}
}

// Validate checks favorites read from outside the reducer.
func Validate(f Favorites) error {
	ids := make(map[string]struct{}, len(f.Items))
	products := make(map[string]struct{}, len(f.Items))

	for i, it := range f.Items {
		switch {
		case strings.TrimSpace(it.ID) == "":
			return fmt.Errorf("%w: item %d has no id", ErrInvalidSnapshot, i)
		case strings.TrimSpace(it.Product.ID) == "":
			return fmt.Errorf("%w: item %s has no product id", ErrInvalidSnapshot, it.ID)
		case it.AddedAt.IsZero():
			return fmt.Errorf("%w: item %s has no addedAt", ErrInvalidSnapshot, it.ID)
		case it.Product.Price.IsNegative():
			return fmt.Errorf("%w: item %s has a negative price", ErrInvalidSnapshot, it.ID)
		}
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %s", ErrInvalidSnapshot, it.ID)
		}
		ids[it.ID] = struct{}{}
		if _, dup := products[it.Product.ID]; dup {
			return fmt.Errorf("%w: product %s listed twice", ErrInvalidSnapshot, it.Product.ID)
		}
		products[it.Product.ID] = struct{}{}
	}

	if f.ItemCount != len(f.Items) {
		return fmt.Errorf("%w: itemCount %d for %d items", ErrInvalidSnapshot, f.ItemCount, len(f.Items))
	}
	return nil
}
