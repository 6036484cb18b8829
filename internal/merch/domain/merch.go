package domain

import (
	"net/url"
	"strings"
	"time"
)

type HeroBanner struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Subtitle           string    `json:"subtitle"`
	BackgroundImageURL string    `json:"backgroundImageUrl"`
	ButtonText         string    `json:"buttonText"`
	ButtonLink         string    `json:"buttonLink"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type CountdownTimer struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Running reports whether now falls inside [StartDate, EndDate].
func (t CountdownTimer) Running(now time.Time) bool {
	return !now.Before(t.StartDate) && !now.After(t.EndDate)
}

// TimeLeft is zero once the timer has ended.
func (t CountdownTimer) TimeLeft(now time.Time) time.Duration {
	if d := t.EndDate.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func SplitDuration(d time.Duration) Remaining {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return Remaining{
		Days:    total / 86400,
		Hours:   total % 86400 / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

type NavType string

const (
	NavInternal NavType = "internal"
	NavExternal NavType = "external"
	NavCategory NavType = "category"
)

func (t NavType) Valid() bool {
	switch t {
	case NavInternal, NavExternal, NavCategory:
		return true
	}
	return false
}

type NavItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Type         NavType   `json:"type"`
	Order        int       `json:"order"`
	Enabled      bool      `json:"enabled"`
	OpenInNewTab bool      `json:"openInNewTab"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidateURL applies the link rules for a navigation type: external links
// need a scheme and host, site links must be a non-root absolute path.
func ValidateURL(raw string, t NavType) bool {
	switch t {
	case NavExternal:
		u, err := url.Parse(raw)
		return err == nil && u.Scheme != "" && u.Host != ""
	case NavInternal, NavCategory:
		return strings.HasPrefix(raw, "/") && len(raw) > 1
	}
	return false
}

// DefaultNav is the menu a fresh store starts with.
func DefaultNav() []NavItem {
	titles := []string{"Novedades", "Hombre", "Mujer", "Accesorios", "Ofertas"}
	items := make([]NavItem, len(titles))
	for i, title := range titles {
		items[i] = NavItem{
			Title:   title,
			URL:     "/category/" + strings.ToLower(title),
			Type:    NavCategory,
			Order:   i + 1,
			Enabled: true,
		}
	}
	return items
}
