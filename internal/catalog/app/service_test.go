package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	items []domain.Product // newest first
	seq   int
}

func (f *fakeProducts) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	f.seq++
	p.ID = fmt.Sprintf("p%d", f.seq)
	f.items = append([]domain.Product{p}, f.items...)
	return p, nil
}

func (f *fakeProducts) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	for i := range f.items {
		if f.items[i].ID == p.ID {
			f.items[i] = p
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

func (f *fakeProducts) Delete(ctx context.Context, id string) error {
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeProducts) Get(ctx context.Context, id string) (domain.Product, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

func (f *fakeProducts) List(ctx context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), f.items...), nil
}

type fakeCategories struct {
	items map[string]domain.Category
}

func (f *fakeCategories) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = fmt.Sprintf("c%d", len(f.items)+1)
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Update(ctx context.Context, c domain.Category) (domain.Category, error) {
	if _, ok := f.items[c.ID]; !ok {
		return domain.Category{}, ErrNotFound
	}
	f.items[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCategories) Get(ctx context.Context, id string) (domain.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeCategories) List(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(f.items))
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

type recorder struct {
	topics []string
	err    error
}

func (r *recorder) Publish(ctx context.Context, ev events.Event) error {
	r.topics = append(r.topics, ev.Topic)
	return r.err
}

func newTestService() (*Service, *recorder) {
	rec := &recorder{}
	svc := NewService(&fakeProducts{}, &fakeCategories{items: map[string]domain.Category{}}, rec, logger.Discard())
	return svc, rec
}

func validInput() ProductInput {
	return ProductInput{
		Name:        "Keyboard",
		Description: "Mechanical",
		Price:       decimal.RequireFromString("49.90"),
		Images:      []string{"a.png"},
		Category:    "Accessories",
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("empty name -> invalid", func(t *testing.T) {
		in := validInput()
		in.Name = "   "
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("zero price -> invalid", func(t *testing.T) {
		in := validInput()
		in.Price = decimal.Zero
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("blank images are dropped before counting", func(t *testing.T) {
		in := validInput()
		in.Images = []string{" ", ""}
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("more than three images -> invalid", func(t *testing.T) {
		in := validInput()
		in.Images = []string{"a", "b", "c", "d"}
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing category -> invalid", func(t *testing.T) {
		in := validInput()
		in.Category = ""
		_, err := svc.CreateProduct(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("valid input is trimmed and stored", func(t *testing.T) {
		in := validInput()
		in.Name = "  Keyboard  "
		in.Images = []string{" a.png ", "", "b.png"}
		p, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Keyboard", p.Name)
		assert.Equal(t, []string{"a.png", "b.png"}, p.Images)
	})
}

func TestProductMutationsPublish(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.UpdateProduct(ctx, p.ID, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	assert.Equal(t, []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}, rec.topics)

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		rec.err = errors.New("broker down")
		_, err := svc.CreateProduct(ctx, validInput())
		assert.NoError(t, err)
	})

	t.Run("missing product surfaces not found and publishes nothing", func(t *testing.T) {
		before := len(rec.topics)
		assert.ErrorIs(t, svc.DeleteProduct(ctx, "ghost"), ErrNotFound)
		_, err := svc.UpdateProduct(ctx, "ghost", validInput())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Len(t, rec.topics, before)
	})
}

func TestListAndSearch(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, in := range []ProductInput{
		{Name: "Belt", Description: "leather belt", Price: decimal.NewFromInt(30), Images: []string{"x"}, Category: "Accessories"},
		{Name: "Boots", Description: "Leather boots", Price: decimal.NewFromInt(120), Images: []string{"x"}, Category: "Shoes"},
		{Name: "Scarf", Description: "Wool", Price: decimal.NewFromInt(25), Images: []string{"x"}, Category: "Accessories"},
	} {
		_, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
	}

	t.Run("by category keeps newest first", func(t *testing.T) {
		got, err := svc.ProductsByCategory(ctx, "Accessories", domain.Filters{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Scarf", got[0].Name)
		assert.Equal(t, "Belt", got[1].Name)
	})

	t.Run("search", func(t *testing.T) {
		got, err := svc.SearchProducts(ctx, "leather")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = svc.SearchProducts(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("bad filters", func(t *testing.T) {
		_, err := svc.ListProducts(ctx, domain.Filters{SortBy: "random"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)
		_, err = svc.ListProducts(ctx, domain.Filters{MinPrice: &lo, MaxPrice: &hi})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCategoryValidation(t *testing.T) {
	svc, rec := newTestService()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Shoes"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	c, err := svc.CreateCategory(ctx, CategoryInput{Name: " Shoes ", ImageURL: "/images/shoes.png"})
	require.NoError(t, err)
	assert.Equal(t, "Shoes", c.Name)

	got, err := svc.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	require.NoError(t, svc.DeleteCategory(ctx, c.ID))
	_, err = svc.GetCategory(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{TopicCategoryCreated, TopicCategoryDeleted}, rec.topics)
}
