package sqlite

import (
	"context"
	"errors"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/shopspring/decimal"
)

const productsCollection = "products"

type productDoc struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
}

type ProductRepo struct {
	col *docstore.Collection
}

func NewProductRepo(store *docstore.Store) *ProductRepo {
	return &ProductRepo{col: store.Collection(productsCollection)}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	doc, err := r.col.Create(ctx, toProductDoc(p))
	if err != nil {
		return domain.Product{}, err
	}
	return toProduct(doc)
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	doc, err := r.col.Update(ctx, p.ID, toProductDoc(p))
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return toProduct(doc)
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return mapErr(r.col.Delete(ctx, id))
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	doc, err := r.col.Get(ctx, id)
	if err != nil {
		return domain.Product{}, mapErr(err)
	}
	return toProduct(doc)
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.col.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := toProduct(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func toProductDoc(p domain.Product) productDoc {
	return productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      p.Images,
		Category:    p.Category,
	}
}

func toProduct(doc docstore.Document) (domain.Product, error) {
	var d productDoc
	if err := doc.Decode(&d); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:          doc.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Images:      d.Images,
		Category:    d.Category,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}

func mapErr(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return app.ErrNotFound
	}
	return err
}
