// Command catalog seeds and inspects the storefront catalog database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	catalog "github.com/dwikikusuma/storefront/internal/catalog/domain"
	catalogsqlite "github.com/dwikikusuma/storefront/internal/catalog/infra/sqlite"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "catalog-cli",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	root := newRootCmd(cfg, log)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error("catalog command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

type cli struct {
	dbPath string
	log    *slog.Logger
}

func newRootCmd(cfg config.Config, log *slog.Logger) *cobra.Command {
	c := &cli{log: log}

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Seed and inspect the storefront catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", cfg.DBPath, "path to the SQLite database")

	root.AddCommand(c.seedCmd(), c.productsCmd(), c.categoriesCmd())
	return root
}

func (c *cli) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the sample categories and products",
		Long: `Create categories and products from a YAML seed file.

Without --file the built-in sample catalog is used. Entries whose name
already exists are skipped, so the command can be run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadSeed(file)
			if err != nil {
				return err
			}
			return c.withService(cmd.Context(), func(svc *catalogapp.Service) error {
				res, err := seed(cmd.Context(), svc, f, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d products (%d skipped)\n",
					res.Categories, res.Products, res.Skipped)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (default: built-in sample)")
	return cmd
}

func (c *cli) productsCmd() *cobra.Command {
	var category, sortBy string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *catalogapp.Service) error {
				items, err := svc.ListProducts(cmd.Context(), catalog.Filters{
					Category: category,
					SortBy:   catalog.SortOption(sortBy),
				})
				if err != nil {
					return err
				}
				return printProducts(cmd.OutOrStdout(), items)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only products in this category")
	cmd.Flags().StringVar(&sortBy, "sort", string(catalog.SortNewest), "newest, price-asc, price-desc, name-asc or name-desc")
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *catalogapp.Service) error {
				items, err := svc.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				return printCategories(cmd.OutOrStdout(), items)
			})
		},
	}
}

// withService opens the database for the duration of fn.
func (c *cli) withService(ctx context.Context, fn func(svc *catalogapp.Service) error) error {
	db, err := sqlite.Open(sqlite.Config{Path: c.dbPath})
	if err != nil {
		return err
	}
	defer closeDB(db, c.log)

	docs := docstore.New(db)
	if err := docs.Migrate(ctx); err != nil {
		return err
	}

	svc := catalogapp.NewService(
		catalogsqlite.NewProductRepo(docs),
		catalogsqlite.NewCategoryRepo(docs),
		events.NewBus(c.log),
		c.log,
	)
	return fn(svc)
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Warn("failed to close database", slog.Any("err", err))
	}
}

func printProducts(out io.Writer, items []catalog.Product) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2))
	}
	return tw.Flush()
}

func printCategories(out io.Writer, items []catalog.Category) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tIMAGE")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.ImageURL)
	}
	return tw.Flush()
}
