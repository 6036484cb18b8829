package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dwikikusuma/storefront/internal/merch/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// MaxStartBacklog is how far in the past a new countdown may start.
const MaxStartBacklog = 24 * time.Hour

type BannerInput struct {
	Title              string
	Subtitle           string
	BackgroundImageURL string
	ButtonText         string
	ButtonLink         string
	IsActive           bool
}

type TimerInput struct {
	Title     string
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
}

type NavInput struct {
	Title        string
	URL          string
	Type         domain.NavType
	Order        int
	Enabled      bool
	OpenInNewTab bool
}

type Service struct {
	banners BannerRepo
	timers  TimerRepo
	nav     NavRepo
	log     *slog.Logger
	now     func() time.Time
}

func NewService(banners BannerRepo, timers TimerRepo, nav NavRepo, log *slog.Logger) *Service {
	return &Service{
		banners: banners,
		timers:  timers,
		nav:     nav,
		log:     log,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for countdown rules.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Service) CreateBanner(ctx context.Context, in BannerInput) (domain.HeroBanner, error) {
	b, err := validateBanner(in)
	if err != nil {
		return domain.HeroBanner{}, err
	}
	return s.banners.Create(ctx, b)
}

func (s *Service) UpdateBanner(ctx context.Context, id string, in BannerInput) (domain.HeroBanner, error) {
	if strings.TrimSpace(id) == "" {
		return domain.HeroBanner{}, ErrInvalidInput
	}
	b, err := validateBanner(in)
	if err != nil {
		return domain.HeroBanner{}, err
	}
	b.ID = id
	return s.banners.Update(ctx, b)
}

func (s *Service) DeleteBanner(ctx context.Context, id string) error {
	return s.banners.Delete(ctx, id)
}

func (s *Service) GetBanner(ctx context.Context, id string) (domain.HeroBanner, error) {
	return s.banners.Get(ctx, id)
}

func (s *Service) ListBanners(ctx context.Context) ([]domain.HeroBanner, error) {
	return s.banners.List(ctx)
}

// ActiveBanner returns ErrNotFound when no banner is active.
func (s *Service) ActiveBanner(ctx context.Context) (domain.HeroBanner, error) {
	all, err := s.banners.List(ctx)
	if err != nil {
		return domain.HeroBanner{}, err
	}
	for _, b := range all {
		if b.IsActive {
			return b, nil
		}
	}
	return domain.HeroBanner{}, ErrNotFound
}

func (s *Service) CreateTimer(ctx context.Context, in TimerInput) (domain.CountdownTimer, error) {
	t, err := s.validateTimer(in)
	if err != nil {
		return domain.CountdownTimer{}, err
	}
	return s.timers.Create(ctx, t)
}

func (s *Service) UpdateTimer(ctx context.Context, id string, in TimerInput) (domain.CountdownTimer, error) {
	if strings.TrimSpace(id) == "" {
		return domain.CountdownTimer{}, ErrInvalidInput
	}
	t, err := s.validateTimer(in)
	if err != nil {
		return domain.CountdownTimer{}, err
	}
	t.ID = id
	return s.timers.Update(ctx, t)
}

func (s *Service) DeleteTimer(ctx context.Context, id string) error {
	return s.timers.Delete(ctx, id)
}

func (s *Service) GetTimer(ctx context.Context, id string) (domain.CountdownTimer, error) {
	return s.timers.Get(ctx, id)
}

func (s *Service) ListTimers(ctx context.Context) ([]domain.CountdownTimer, error) {
	return s.timers.List(ctx)
}

// ActiveTimer returns the active timer only while it is running.
func (s *Service) ActiveTimer(ctx context.Context) (domain.CountdownTimer, error) {
	all, err := s.timers.List(ctx)
	if err != nil {
		return domain.CountdownTimer{}, err
	}
	now := s.now()
	for _, t := range all {
		if t.IsActive && t.Running(now) {
			return t, nil
		}
	}
	return domain.CountdownTimer{}, ErrNotFound
}

// Now exposes the service clock so handlers report time left consistently.
func (s *Service) Now() time.Time { return s.now() }

func (s *Service) CreateNavItem(ctx context.Context, in NavInput) (domain.NavItem, error) {
	item, err := validateNav(in)
	if err != nil {
		return domain.NavItem{}, err
	}
	return s.nav.Create(ctx, item)
}

func (s *Service) UpdateNavItem(ctx context.Context, id string, in NavInput) (domain.NavItem, error) {
	if strings.TrimSpace(id) == "" {
		return domain.NavItem{}, ErrInvalidInput
	}
	item, err := validateNav(in)
	if err != nil {
		return domain.NavItem{}, err
	}
	item.ID = id
	return s.nav.Update(ctx, item)
}

func (s *Service) DeleteNavItem(ctx context.Context, id string) error {
	return s.nav.Delete(ctx, id)
}

func (s *Service) GetNavItem(ctx context.Context, id string) (domain.NavItem, error) {
	return s.nav.Get(ctx, id)
}

// ListNav returns the menu sorted by order. An empty menu is seeded with
// domain.DefaultNav first.
func (s *Service) ListNav(ctx context.Context) ([]domain.NavItem, error) {
	items, err := s.nav.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		s.log.Info("seeding default navigation")
		if err := s.nav.CreateMany(ctx, domain.DefaultNav()); err != nil {
			return nil, fmt.Errorf("seed navigation: %w", err)
		}
		if items, err = s.nav.List(ctx); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items, nil
}

func (s *Service) EnabledNav(ctx context.Context) ([]domain.NavItem, error) {
	items, err := s.ListNav(ctx)
	if err != nil {
		return nil, err
	}

	out := items[:0]
	for _, it := range items {
		if it.Enabled {
			out = append(out, it)
		}
	}
	return out, nil
}

func validateBanner(in BannerInput) (domain.HeroBanner, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.HeroBanner{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return domain.HeroBanner{
		Title:              title,
		Subtitle:           strings.TrimSpace(in.Subtitle),
		BackgroundImageURL: strings.TrimSpace(in.BackgroundImageURL),
		ButtonText:         strings.TrimSpace(in.ButtonText),
		ButtonLink:         strings.TrimSpace(in.ButtonLink),
		IsActive:           in.IsActive,
	}, nil
}

func (s *Service) validateTimer(in TimerInput) (domain.CountdownTimer, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return domain.CountdownTimer{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case !in.EndDate.After(in.StartDate):
		return domain.CountdownTimer{}, fmt.Errorf("%w: endDate must be after startDate", ErrInvalidInput)
	case in.StartDate.Before(s.now().Add(-MaxStartBacklog)):
		return domain.CountdownTimer{}, fmt.Errorf("%w: startDate is more than 24h in the past", ErrInvalidInput)
	}
	return domain.CountdownTimer{
		Title:     title,
		StartDate: in.StartDate.UTC(),
		EndDate:   in.EndDate.UTC(),
		IsActive:  in.IsActive,
	}, nil
}

func validateNav(in NavInput) (domain.NavItem, error) {
	title := strings.TrimSpace(in.Title)
	u := strings.TrimSpace(in.URL)
	switch {
	case title == "":
		return domain.NavItem{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case !in.Type.Valid():
		return domain.NavItem{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, in.Type)
	case !domain.ValidateURL(u, in.Type):
		return domain.NavItem{}, fmt.Errorf("%w: invalid %s url %q", ErrInvalidInput, in.Type, u)
	case in.Order < 1:
		return domain.NavItem{}, fmt.Errorf("%w: order must be at least 1", ErrInvalidInput)
	}
	return domain.NavItem{
		Title:        title,
		URL:          u,
		Type:         in.Type,
		Order:        in.Order,
		Enabled:      in.Enabled,
		OpenInNewTab: in.OpenInNewTab,
	}, nil
}
