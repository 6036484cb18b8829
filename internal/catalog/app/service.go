package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

const (
	TopicProductCreated  = "catalog.product.created"
	TopicProductUpdated  = "catalog.product.updated"
	TopicProductDeleted  = "catalog.product.deleted"
	TopicCategoryCreated = "catalog.category.created"
	TopicCategoryUpdated = "catalog.category.updated"
	TopicCategoryDeleted = "catalog.category.deleted"
)

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Images      []string
	Category    string
}

type CategoryInput struct {
	Name     string
	ImageURL string
}

type Service struct {
	products   ProductRepo
	categories CategoryRepo
	events     EventPublisher
	log        *slog.Logger
}

func NewService(products ProductRepo, categories CategoryRepo, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		products:   products,
		categories: categories,
		events:     events,
		log:        log,
	}
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	p, err := validateProduct(in)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := s.products.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	s.publish(ctx, TopicProductCreated, product.ID)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}

	p, err := validateProduct(in)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = id

	product, err := s.products.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}

	s.publish(ctx, TopicProductUpdated, product.ID)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, TopicProductDeleted, id)
	return nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, ErrInvalidInput
	}
	return s.products.Get(ctx, id)
}

// ListProducts returns the catalog filtered and sorted by f.
func (s *Service) ListProducts(ctx context.Context, f domain.Filters) ([]domain.Product, error) {
	if !f.SortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, f.SortBy)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, fmt.Errorf("%w: minPrice above maxPrice", ErrInvalidInput)
	}

	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

func (s *Service) ProductsByCategory(ctx context.Context, category string, f domain.Filters) ([]domain.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrInvalidInput
	}
	f.Category = category
	return s.ListProducts(ctx, f)
}

// SearchProducts matches term against names and descriptions. An empty
// term matches nothing.
func (s *Service) SearchProducts(ctx context.Context, term string) ([]domain.Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Product{}, nil
	}
	return s.ListProducts(ctx, domain.Filters{Search: term})
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	c, err := validateCategory(in)
	if err != nil {
		return domain.Category{}, err
	}

	category, err := s.categories.Create(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}

	s.publish(ctx, TopicCategoryCreated, category.ID)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Category{}, ErrInvalidInput
	}

	c, err := validateCategory(in)
	if err != nil {
		return domain.Category{}, err
	}
	c.ID = id

	category, err := s.categories.Update(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}

	s.publish(ctx, TopicCategoryUpdated, category.ID)
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, TopicCategoryDeleted, id)
	return nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Category{}, ErrInvalidInput
	}
	return s.categories.Get(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// publish is best effort: the write already happened, peers fall back to
// their cache TTL if the event is lost.
func (s *Service) publish(ctx context.Context, topic, subject string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events.New(topic, subject)); err != nil {
		s.log.Warn("event publish failed", slog.String("topic", topic), slog.String("subject", subject), slog.Any("err", err))
	}
}

func validateProduct(in ProductInput) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	desc := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	switch {
	case name == "" || desc == "":
		return domain.Product{}, fmt.Errorf("%w: name and description are required", ErrInvalidInput)
	case category == "":
		return domain.Product{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	case !in.Price.IsPositive():
		return domain.Product{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case len(images) == 0 || len(images) > domain.MaxImages:
		return domain.Product{}, fmt.Errorf("%w: between 1 and %d images required", ErrInvalidInput, domain.MaxImages)
	}

	return domain.Product{
		Name:        name,
		Description: desc,
		Price:       in.Price,
		Images:      images,
		Category:    category,
	}, nil
}

func validateCategory(in CategoryInput) (domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	img := strings.TrimSpace(in.ImageURL)
	if name == "" || img == "" {
		return domain.Category{}, fmt.Errorf("%w: name and imageUrl are required", ErrInvalidInput)
	}
	return domain.Category{Name: name, ImageURL: img}, nil
}
