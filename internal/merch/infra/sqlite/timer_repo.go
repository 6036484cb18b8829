package sqlite

import (
	"context"
	"time"

	"github.com/dwikikusuma/storefront/internal/merch/domain"
	"github.com/dwikikusuma/storefront/pkg/docstore"
)

const timersCollection = "countdownTimers"

type timerDoc struct {
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
}

type TimerRepo struct {
	store *docstore.Store
}

func NewTimerRepo(store *docstore.Store) *TimerRepo {
	return &TimerRepo{store: store}
}

func (r *TimerRepo) Create(ctx context.Context, t domain.CountdownTimer) (domain.CountdownTimer, error) {
	var out domain.CountdownTimer
	err := r.store.WithTx(ctx, func(tx *docstore.Store) error {
		col := tx.Collection(timersCollection)
		doc, err := col.Create(ctx, toTimerDoc(t))
		if err != nil {
			return err
		}
		if t.IsActive {
			if err := deactivateOthers(ctx, col, doc.ID); err != nil {
				return err
			}
		}
		out, err = toTimer(doc)
		return err
	})
	return out, err
}

func (r *TimerRepo) Update(ctx context.Context, t domain.CountdownTimer) (domain.CountdownTimer, error) {
	var out domain.CountdownTimer
	err := r.store.WithTx(ctx, func(tx *docstore.Store) error {
		col := tx.Collection(timersCollection)
		doc, err := col.Update(ctx, t.ID, toTimerDoc(t))
		if err != nil {
			return mapErr(err)
		}
		if t.IsActive {
			if err := deactivateOthers(ctx, col, doc.ID); err != nil {
				return err
			}
		}
		out, err = toTimer(doc)
		return err
	})
	return out, err
}

func (r *TimerRepo) Delete(ctx context.Context, id string) error {
	return mapErr(r.store.Collection(timersCollection).Delete(ctx, id))
}

func (r *TimerRepo) Get(ctx context.Context, id string) (domain.CountdownTimer, error) {
	doc, err := r.store.Collection(timersCollection).Get(ctx, id)
	if err != nil {
		return domain.CountdownTimer{}, mapErr(err)
	}
	return toTimer(doc)
}

func (r *TimerRepo) List(ctx context.Context) ([]domain.CountdownTimer, error) {
	docs, err := r.store.Collection(timersCollection).List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CountdownTimer, 0, len(docs))
	for _, doc := range docs {
		t, err := toTimer(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func toTimerDoc(t domain.CountdownTimer) timerDoc {
	return timerDoc{Title: t.Title, StartDate: t.StartDate, EndDate: t.EndDate, IsActive: t.IsActive}
}

func toTimer(doc docstore.Document) (domain.CountdownTimer, error) {
	var d timerDoc
	if err := doc.Decode(&d); err != nil {
		return domain.CountdownTimer{}, err
	}
	return domain.CountdownTimer{
		ID:        doc.ID,
		Title:     d.Title,
		StartDate: d.StartDate,
		EndDate:   d.EndDate,
		IsActive:  d.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
