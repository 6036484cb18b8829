package sqlite

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/merch/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
)

const bannersCollection = "heroBanners"

type bannerDoc struct {
	Title              string `json:"title"`
	Subtitle           string `json:"subtitle"`
	BackgroundImageURL string `json:"backgroundImageUrl"`
	ButtonText         string `json:"buttonText"`
	ButtonLink         string `json:"buttonLink"`
	IsActive           bool   `json:"isActive"`
}

type BannerRepo struct {
	store *docstore.Store
}

func NewBannerRepo(store *docstore.Store) *BannerRepo {
	return &BannerRepo{store: store}
}

func (r *BannerRepo) Create(ctx context.Context, b domain.HeroBanner) (domain.HeroBanner, error) {
	var out domain.HeroBanner
	err := r.store.WithTx(ctx, func(tx *docstore.Store) error {
		col := tx.Collection(bannersCollection)
		doc, err := col.Create(ctx, toBannerDoc(b))
		if err != nil {
			return err
		}
		if b.IsActive {
			if err := deactivateOthers(ctx, col, doc.ID); err != nil {
				return err
			}
		}
		out, err = toBanner(doc)
		return err
	})
	return out, err
}

func (r *BannerRepo) Update(ctx context.Context, b domain.HeroBanner) (domain.HeroBanner, error) {
	var out domain.HeroBanner
	err := r.store.WithTx(ctx, func(tx *docstore.Store) error {
		col := tx.Collection(bannersCollection)
		doc, err := col.Update(ctx, b.ID, toBannerDoc(b))
		if err != nil {
			return mapErr(err)
		}
		if b.IsActive {
			if err := deactivateOthers(ctx, col, doc.ID); err != nil {
				return err
			}
		}
		out, err = toBanner(doc)
		return err
	})
	return out, err
}

func (r *BannerRepo) Delete(ctx context.Context, id string) error {
	return mapErr(r.store.Collection(bannersCollection).Delete(ctx, id))
}

func (r *BannerRepo) Get(ctx context.Context, id string) (domain.HeroBanner, error) {
	doc, err := r.store.Collection(bannersCollection).Get(ctx, id)
	if err != nil {
		return domain.HeroBanner{}, mapErr(err)
	}
	return toBanner(doc)
}

func (r *BannerRepo) List(ctx context.Context) ([]domain.HeroBanner, error) {
	docs, err := r.store.Collection(bannersCollection).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HeroBanner, 0, len(docs))
	for _, doc := range docs {
		b, err := toBanner(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func toBannerDoc(b domain.HeroBanner) bannerDoc {
	return bannerDoc{
		Title:              b.Title,
		Subtitle:           b.Subtitle,
		BackgroundImageURL: b.BackgroundImageURL,
		ButtonText:         b.ButtonText,
		ButtonLink:         b.ButtonLink,
		IsActive:           b.IsActive,
	}
}

func toBanner(doc docstore.Document) (domain.HeroBanner, error) {
	var d bannerDoc
	if err := doc.Decode(&d); err != nil {
		return domain.HeroBanner{}, err
	}
	return domain.HeroBanner{
		ID:                 doc.ID,
		Title:              d.Title,
		Subtitle:           d.Subtitle,
		BackgroundImageURL: d.BackgroundImageURL,
		ButtonText:         d.ButtonText,
		ButtonLink:         d.ButtonLink,
		IsActive:           d.IsActive,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}
