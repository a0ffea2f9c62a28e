// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/upload"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-api/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-api/internal/infrastructure/messaging/kafka"
	"github.com/your-org/storefront-api/internal/interfaces/http"
	"github.com/your-org/storefront-api/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-api/internal/interfaces/http/routes"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/metrics"
	"github.com/your-org/storefront-api/internal/pkg/pdf"
	"github.com/your-org/storefront-api/internal/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	if err := run(cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server exited with error")
	}
	appLogger.Info("Server shutdown completed")
}

func run(cfg *config.Config, appLogger *logrus.Logger) error {
	appLogger.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB())
	if err := migration.RunAutoMigrations(); err != nil {
		return err
	}
	if err := migration.CreateIndexes(); err != nil {
		return err
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			appLogger.WithError(err).Warn("Data seeding failed")
		}
	}

	shutdownTracing, err := tracing.Init(cfg)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			appLogger.WithError(err).Warn("Tracer shutdown failed")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	var publisher order.EventPublisher = order.NopPublisher{}
	if cfg.Events.Enabled {
		kafkaPublisher := kafka.NewPublisher(cfg.Events)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		appLogger.WithField("topic", cfg.Events.Topic).Info("Order events enabled")
	}

	gormDB := db.GetDB()
	productRepo := product.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	orderRepo := order.NewRepository(gormDB)

	userService := user.NewService(gormDB, cfg, appLogger)
	imageStorage := upload.NewStorage(cfg.Upload)
	productService := product.NewService(gormDB, appLogger).WithImageStore(imageStorage)
	categoryService := product.NewCategoryService(gormDB).WithImageStore(imageStorage)
	uploadService := upload.NewService(gormDB, imageStorage, appLogger)
	cartService := cart.NewService(gormDB, cartRepo, productRepo, appLogger, appMetrics)
	orderService := order.NewService(gormDB, orderRepo, cartRepo, productRepo, publisher, appLogger, appMetrics)

	sessions := redis.NewSessionStore(redisClient.GetClient(), cfg.Session.TTL)

	server := http.NewServer(cfg, appLogger, http.Options{
		Routes: routes.Dependencies{
			Config:   cfg,
			JWT:      auth.NewJWTManager(cfg),
			Sessions: sessions,
			Logger:   appLogger,
			Handlers: routes.Handlers{
				Auth:     handlers.NewAuthHandler(userService, cartService, sessions, cfg.Session, appLogger),
				Product:  handlers.NewProductHandler(productService, appLogger),
				Category: handlers.NewCategoryHandler(categoryService, appLogger),
				Cart:     handlers.NewCartHandler(cartService, appLogger),
				Order:    handlers.NewOrderHandler(orderService, appLogger),
				Invoice:  handlers.NewInvoiceHandler(orderService, pdf.NewService(cfg.Invoice), appLogger),
				Upload:   handlers.NewUploadHandler(uploadService, productService, categoryService, appLogger),
			},
		},
		Redis:    redisClient.GetClient(),
		Metrics:  appMetrics,
		Gatherer: registry,
		Checks: map[string]http.HealthChecker{
			"database": db,
			"redis":    redisClient,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	return g.Wait()
}
