package sqlite

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dwikikusuma/storefront/internal/merch/app"
	"github.com/dwikikusuma/storefront/pkg/docstore"
)

// deactivateOthers clears isActive on every document in col except keepID.
// Other fields are rewritten untouched.
func deactivateOthers(ctx context.Context, col *docstore.Collection, keepID string) error {
	docs, err := col.List(ctx)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if doc.ID == keepID {
			continue
		}

		var body map[string]json.RawMessage
		if err := doc.Decode(&body); err != nil {
			return err
		}
		var active bool
		if raw, ok := body["isActive"]; !ok || json.Unmarshal(raw, &active) != nil || !active {
			continue
		}

		body["isActive"] = json.RawMessage("false")
		if _, err := col.Update(ctx, doc.ID, body); err != nil {
			return err
		}
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return app.ErrNotFound
	}
	return err
}
