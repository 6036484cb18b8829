package cache

import (
	"context"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/events"
)

const listKey = "\x00list"

// ProductRepo wraps an app.ProductRepo. Reads are cached, writes go straight
// through and drop the cache.
type ProductRepo struct {
	next  app.ProductRepo
	items *TTL[domain.Product]
	list  *TTL[[]domain.Product]
}

func NewProductRepo(next app.ProductRepo, ttl time.Duration) *ProductRepo {
	return &ProductRepo{
		next:  next,
		items: NewTTL[domain.Product](ttl),
		list:  NewTTL[[]domain.Product](ttl),
	}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	out, err := r.next.Create(ctx, p)
	if err == nil {
		r.list.Purge()
	}
	return out, err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	out, err := r.next.Update(ctx, p)
	r.forget(p.ID)
	return out, err
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.forget(id)
	return err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	p, err := r.items.Get(ctx, id, func(ctx context.Context) (domain.Product, error) {
		return r.next.Get(ctx, id)
	})
	if err != nil {
		return domain.Product{}, err
	}
	return p.Clone(), nil
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	list, err := r.list.Get(ctx, listKey, r.next.List)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *ProductRepo) Purge() {
	r.items.Purge()
	r.list.Purge()
}

func (r *ProductRepo) forget(id string) {
	r.items.Forget(id)
	r.list.Purge()
}

type CategoryRepo struct {
	next  app.CategoryRepo
	items *TTL[domain.Category]
	list  *TTL[[]domain.Category]
}

func NewCategoryRepo(next app.CategoryRepo, ttl time.Duration) *CategoryRepo {
	return &CategoryRepo{
		next:  next,
		items: NewTTL[domain.Category](ttl),
		list:  NewTTL[[]domain.Category](ttl),
	}
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	out, err := r.next.Create(ctx, c)
	if err == nil {
		r.list.Purge()
	}
	return out, err
}

func (r *CategoryRepo) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	out, err := r.next.Update(ctx, c)
	r.items.Forget(c.ID)
	r.list.Purge()
	return out, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.items.Forget(id)
	r.list.Purge()
	return err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	return r.items.Get(ctx, id, func(ctx context.Context) (domain.Category, error) {
		return r.next.Get(ctx, id)
	})
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	list, err := r.list.Get(ctx, listKey, r.next.List)
	if err != nil {
		return nil, err
	}
	return append([]domain.Category(nil), list...), nil
}

func (r *CategoryRepo) Purge() {
	r.items.Purge()
	r.list.Purge()
}

// Invalidator returns an event handler that drops both caches on any
// catalog change, including ones made by other instances.
func Invalidator(products *ProductRepo, categories *CategoryRepo) events.Handler {
	return func(ctx context.Context, ev events.Event) {
		switch {
		case ev.HasPrefix("catalog.product"):
			products.Purge()
		case ev.HasPrefix("catalog.category"):
			categories.Purge()
		}
	}
}
