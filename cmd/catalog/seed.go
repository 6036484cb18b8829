package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// seedWorkers bounds concurrent creates. SQLite serializes writes anyway.
const seedWorkers = 4

type seedFile struct {
	Categories []seedCategory `yaml:"categories"`
	Products   []seedProduct  `yaml:"products"`
}

type seedCategory struct {
	Name     string `yaml:"name"`
	ImageURL string `yaml:"imageUrl"`
}

type seedProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Images      []string `yaml:"images"`
	Category    string   `yaml:"category"`
}

func loadSeed(path string) (seedFile, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return seedFile{}, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
		data = b
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seedFile{}, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	for _, p := range f.Products {
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return seedFile{}, fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
		}
	}
	return f, nil
}

type seedResult struct {
	Categories, Products, Skipped int
}

// seed creates every category and product whose name is not in the catalog
// yet, so running it twice does not duplicate anything.
func seed(ctx context.Context, svc *catalogapp.Service, f seedFile, out io.Writer) (seedResult, error) {
	var res seedResult
	out = &lockedWriter{w: out}

	existingCats, err := svc.ListCategories(ctx)
	if err != nil {
		return res, err
	}
	haveCat := make(map[string]bool, len(existingCats))
	for _, c := range existingCats {
		haveCat[c.Name] = true
	}

	existingProducts, err := svc.ListProducts(ctx, catalog.Filters{})
	if err != nil {
		return res, err
	}
	haveProduct := make(map[string]bool, len(existingProducts))
	for _, p := range existingProducts {
		haveProduct[p.Name] = true
	}

	var created, skipped atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)
	for _, c := range f.Categories {
		if haveCat[c.Name] {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			cat, err := svc.CreateCategory(gctx, catalogapp.CategoryInput{Name: c.Name, ImageURL: c.ImageURL})
			if err != nil {
				return fmt.Errorf("category %q: %w", c.Name, err)
			}
			created.Add(1)
			fmt.Fprintf(out, "created category %s (%s)\n", cat.Name, cat.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Categories = int(created.Swap(0))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)
	for _, p := range f.Products {
		if haveProduct[p.Name] {
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			prod, err := svc.CreateProduct(gctx, catalogapp.ProductInput{
				Name:        p.Name,
				Description: p.Description,
				Price:       decimal.RequireFromString(p.Price),
				Images:      p.Images,
				Category:    p.Category,
			})
			if err != nil {
				return fmt.Errorf("product %q: %w", p.Name, err)
			}
			created.Add(1)
			fmt.Fprintf(out, "created product %s (%s)\n", prod.Name, prod.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Products = int(created.Load())
	res.Skipped = int(skipped.Load())
	return res, nil
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
