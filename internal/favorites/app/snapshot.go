package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dwikikusuma/storefront/internal/favorites/domain"
)

const SnapshotVersion = 1

type snapshot struct {
	Version   int               `json:"version"`
	Favorites *domain.Favorites `json:"favorites"`
}

func EncodeSnapshot(f domain.Favorites) ([]byte, error) {
	return json.Marshal(snapshot{Version: SnapshotVersion, Favorites: &f})
}

func DecodeSnapshot(data []byte) (domain.Favorites, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s snapshot
	if err := dec.Decode(&s); err != nil {
		return domain.Favorites{}, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	switch {
	case dec.More():
		return domain.Favorites{}, fmt.Errorf("%w: trailing data", domain.ErrInvalidSnapshot)
	case s.Version != SnapshotVersion:
		return domain.Favorites{}, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidSnapshot, s.Version)
	case s.Favorites == nil:
		return domain.Favorites{}, fmt.Errorf("%w: missing favorites", domain.ErrInvalidSnapshot)
	}

	f := *s.Favorites
	if f.Items == nil {
		f.Items = []domain.Item{}
	}
	if err := domain.Validate(f); err != nil {
		return domain.Favorites{}, err
	}
	return f, nil
}
