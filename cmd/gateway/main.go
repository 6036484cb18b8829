package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	catalogapp "github.com/dwikikusuma/storefront/internal/catalog/app"
	"github.com/dwikikusuma/storefront/internal/catalog/infra/cache"
	catalogsqlite "github.com/dwikikusuma/storefront/internal/catalog/infra/sqlite"
	checkoutapp "github.com/dwikikusuma/storefront/internal/checkout/app"
	"github.com/dwikikusuma/storefront/internal/checkout/infra/adapter"
	merchapp "github.com/dwikikusuma/storefront/internal/merch/app"
	merchsqlite "github.com/dwikikusuma/storefront/internal/merch/infra/sqlite"
	"github.com/dwikikusuma/storefront/internal/session"
	"github.com/dwikikusuma/storefront/pkg/config"
	"github.com/dwikikusuma/storefront/pkg/docstore"
	"github.com/dwikikusuma/storefront/pkg/events"
	"github.com/dwikikusuma/storefront/pkg/localstore"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/dwikikusuma/storefront/pkg/shutdown"
	"github.com/dwikikusuma/storefront/pkg/sqlite"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "gateway",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	if err := run(cfg, log); err != nil {
		log.Error("gateway failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := sqlite.Open(sqlite.Config{Path: cfg.DBPath})
	if err != nil {
		return err
	}
	defer db.Close()

	docs := docstore.New(db)
	if err := docs.Migrate(ctx); err != nil {
		return err
	}

	// Catalog, cached in front of the document store
	products := cache.NewProductRepo(catalogsqlite.NewProductRepo(docs), cfg.CatalogCacheTTL)
	categories := cache.NewCategoryRepo(catalogsqlite.NewCategoryRepo(docs), cfg.CatalogCacheTTL)
	invalidate := cache.Invalidator(products, categories)

	g, gctx := errgroup.WithContext(ctx)

	var publisher events.Publisher
	if cfg.RabbitMQURL == "" {
		bus := events.NewBus(log)
		bus.Subscribe(invalidate)
		publisher = bus
	} else {
		pool, err := events.NewChannelPool(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.ChannelPoolSize, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		publisher = events.NewAMQPPublisher(pool, cfg.RabbitMQExchange)

		g.Go(func() error {
			// Without the consumer, peer writes reach the cache only via TTL expiry.
			if err := events.Consume(gctx, pool, cfg.RabbitMQExchange, log, invalidate); err != nil {
				log.Error("event consumer stopped", slog.Any("err", err))
			}
			return nil
		})
	}

	catalogSvc := catalogapp.NewService(products, categories, publisher, log)
	merchSvc := merchapp.NewService(
		merchsqlite.NewBannerRepo(docs),
		merchsqlite.NewTimerRepo(docs),
		merchsqlite.NewNavRepo(docs),
		log,
	)

	// Shopper state lives on local disk, one file per shopper and aggregate
	storage, err := localstore.Open(cfg.StorageDir, log)
	if err != nil {
		return err
	}
	defer storage.Close()
	if err := storage.Start(gctx); err != nil {
		return err
	}

	sessions := session.NewRegistry(storage, log,
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithMaxShoppers(cfg.SessionMaxShoppers),
	)
	defer sessions.Close()
	g.Go(func() error {
		sessions.Run(gctx)
		return nil
	})

	checkoutSvc := checkoutapp.NewService(
		adapter.NewCartStoreReader(sessions),
		adapter.NewCatalogServiceReader(catalogSvc),
		cfg.CheckoutMaxConcurrent,
	)

	router := newRouter(routerDeps{
		Catalog:    catalogSvc,
		Merch:      merchSvc,
		Checkout:   checkoutSvc,
		Sessions:   sessions,
		Ready:      db.PingContext,
		AdminToken: cfg.AdminToken,
		Log:        log,
	})
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set, admin routes are open")
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		log.Info("http server starting", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		err := shutdown.Graceful(10*time.Second, server.Shutdown, func() {
			log.Warn("graceful stop timeout, forcing stop")
			server.Close()
		})
		if err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
		return nil
	})

	return g.Wait()
}
