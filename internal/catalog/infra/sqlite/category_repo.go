package sqlite

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
)

const categoriesCollection = "categories"

type categoryDoc struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type CategoryRepo struct {
	col *docstore.Collection
}

func NewCategoryRepo(store *docstore.Store) *CategoryRepo {
	return &CategoryRepo{col: store.Collection(categoriesCollection)}
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	doc, err := r.col.Create(ctx, categoryDoc{Name: c.Name, ImageURL: c.ImageURL})
	if err != nil {
		return domain.Category{}, err
	}
	return toCategory(doc)
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	doc, err := r.col.Update(ctx, c.ID, categoryDoc{Name: c.Name, ImageURL: c.ImageURL})
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	return toCategory(doc)
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return mapErr(r.col.Delete(ctx, id))
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return domain.Category{}, mapErr(err)
	}
	return toCategory(doc)
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		c, err := toCategory(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func toCategory(doc docstore.Document) (domain.Category, error) {
	var d categoryDoc
	if err := doc.Decode(&d); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{
		ID:        doc.ID,
		Name:      d.Name,
		ImageURL:  d.ImageURL,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
