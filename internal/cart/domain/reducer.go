package domain

import (
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/google/uuid"
)

type Action interface {
	isAction()
}

// Add merges into the line with the same product, size and color, or
// appends a new line. Quantity below 1 counts as 1.
// Negative quantities are never subtracted; use SetQuantity to decrement.
type Add struct {
	Product  domain.Product
	Quantity int
	Size     string
	Color    string
}

type Remove struct {
	LineItemID string
}

// SetQuantity with a quantity of zero or less removes the line.
type SetQuantity struct {
	LineItemID string
	Quantity   int
}

type Clear struct{}

// Load replaces the state as-is. Snapshots are validated before they get here.
type Load struct {
	Snapshot Cart
}

func (Add) isAction()         {}
func (Remove) isAction()      {}
func (SetQuantity) isAction() {}
func (Clear) isAction()       {}
func (Load) isAction()        {}

type Reducer struct {
	NewID func() string
}

func NewReducer() Reducer {
	return Reducer{NewID: uuid.NewString}
}

// Reduce returns the next state. It never fails and never modifies state.
func (r Reducer) Reduce(state Cart, action Action) Cart {
	switch a := action.(type) {
	case Add:
		return r.add(state, a)
	case Remove:
		return ComputeTotals(without(state.Items, a.LineItemID))
	case SetQuantity:
		if a.Quantity <= 0 {
			return ComputeTotals(without(state.Items, a.LineItemID))
		}
		items := copyItems(state.Items)
		for i := range items {
			if items[i].ID == a.LineItemID {
				items[i].Quantity = a.Quantity
			}
		}
		return ComputeTotals(items)
	case Clear:
		return Empty()
	case Load:
		return a.Snapshot.Clone()
	default:
		return state
	}
}

func (r Reducer) add(state Cart, a Add) Cart {
	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}

	items := copyItems(state.Items)
	for i := range items {
		if items[i].Matches(a.Product.ID, a.Size, a.Color) {
			items[i].Quantity += qty
			return ComputeTotals(items)
		}
	}

	items = append(items, LineItem{
		ID:       r.NewID(),
		Product:  a.Product.Clone(),
		Quantity: qty,
		Size:     a.Size,
		Color:    a.Color,
	})
	return ComputeTotals(items)
}

func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}

func without(items []LineItem, lineID string) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, li := range items {
		if li.ID != lineID {
			out = append(out, li)
		}
	}
	return out
}
