package sqlite

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/merch/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
)

const navCollection = "websiteNavigation"

type navDoc struct {
	Title        string         `json:"title"`
	URL          string         `json:"url"`
	Type         domain.NavType `json:"type"`
	Order        int            `json:"order"`
	Enabled      bool           `json:"enabled"`
	OpenInNewTab bool           `json:"openInNewTab"`
}

type NavRepo struct {
	store *docstore.Store
}

func NewNavRepo(store *docstore.Store) *NavRepo {
	return &NavRepo{store: store}
}

func (r *NavRepo) Create(ctx context.Context, item domain.NavItem) (domain.NavItem, error) {
	doc, err := r.store.Collection(navCollection).Create(ctx, toNavDoc(item))
	if err != nil {
		return domain.NavItem{}, err
	}
	return toNav(doc)
}

// CreateMany inserts all items or none.
func (r *NavRepo) CreateMany(ctx context.Context, items []domain.NavItem) error {
	return r.store.WithTx(ctx, func(tx *docstore.Store) error {
		col := tx.Collection(navCollection)
		for _, item := range items {
			if _, err := col.Create(ctx, toNavDoc(item)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *NavRepo) Update(ctx context.Context, item domain.NavItem) (domain.NavItem, error) {
	doc, err := r.store.Collection(navCollection).Update(ctx, item.ID, toNavDoc(item))
	if err != nil {
		return domain.NavItem{}, mapErr(err)
	}
	return toNav(doc)
}

func (r *NavRepo) Delete(ctx context.Context, id string) error {
	return mapErr(r.store.Collection(navCollection).Delete(ctx, id))
}

func (r *NavRepo) Get(ctx context.Context, id string) (domain.NavItem, error) {
	doc, err := r.store.Collection(navCollection).Get(ctx, id)
	if err != nil {
		return domain.NavItem{}, mapErr(err)
	}
	return toNav(doc)
}

func (r *NavRepo) List(ctx context.Context) ([]domain.NavItem, error) {
	docs, err := r.store.Collection(navCollection).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NavItem, 0, len(docs))
	for _, doc := range docs {
		item, err := toNav(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func toNavDoc(item domain.NavItem) navDoc {
	return navDoc{
		Title:        item.Title,
		URL:          item.URL,
		Type:         item.Type,
		Order:        item.Order,
		Enabled:      item.Enabled,
		OpenInNewTab: item.OpenInNewTab,
	}
}

func toNav(doc docstore.Document) (domain.NavItem, error) {
	var d navDoc
	if err := doc.Decode(&d); err != nil {
		return domain.NavItem{}, err
	}
	return domain.NavItem{
		ID:           doc.ID,
		Title:        d.Title,
		URL:          d.URL,
		Type:         d.Type,
		Order:        d.Order,
		Enabled:      d.Enabled,
		OpenInNewTab: d.OpenInNewTab,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
