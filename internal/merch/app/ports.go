package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/merch/domain"
)

// BannerRepo saves an active banner and deactivates every other banner in
// one transaction.
type BannerRepo interface {
	Create(ctx context.Context, b domain.HeroBanner) (domain.HeroBanner, error)
	Update(ctx context.Context, b domain.HeroBanner) (domain.HeroBanner, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.HeroBanner, error)
	List(ctx context.Context) ([]domain.HeroBanner, error)
}

// TimerRepo follows the same single-active rule as BannerRepo.
type TimerRepo interface {
	Create(ctx context.Context, t domain.CountdownTimer) (domain.CountdownTimer, error)
	Update(ctx context.Context, t domain.CountdownTimer) (domain.CountdownTimer, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.CountdownTimer, error)
	List(ctx context.Context) ([]domain.CountdownTimer, error)
}

type NavRepo interface {
	Create(ctx context.Context, item domain.NavItem) (domain.NavItem, error)
	CreateMany(ctx context.Context, items []domain.NavItem) error
	Update(ctx context.Context, item domain.NavItem) (domain.NavItem, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.NavItem, error)
	List(ctx context.Context) ([]domain.NavItem, error)
}
