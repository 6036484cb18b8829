package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

const SnapshotVersion = 1

type snapshot struct {
	Version int          `json:"version"`
	Cart    *domain.Cart `json:"cart"`
}

func EncodeSnapshot(c domain.Cart) ([]byte, error) {
	return json.Marshal(snapshot{Version: SnapshotVersion, Cart: &c})
}

// DecodeSnapshot parses and validates a persisted cart. Unknown fields,
// other versions and carts that fail domain.Validate are rejected.
func DecodeSnapshot(data []byte) (domain.Cart, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s snapshot
	if err := dec.Decode(&s); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	if dec.More() {
		return domain.Cart{}, fmt.Errorf("%w: trailing data", domain.ErrInvalidSnapshot)
	}
	if s.Version != SnapshotVersion {
		return domain.Cart{}, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidSnapshot, s.Version)
	}
	if s.Cart == nil {
		return domain.Cart{}, fmt.Errorf("%w: missing cart", domain.ErrInvalidSnapshot)
	}

	c := *s.Cart
	if c.Items == nil {
		c.Items = []domain.LineItem{}
	}
	if err := domain.Validate(c); err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}
