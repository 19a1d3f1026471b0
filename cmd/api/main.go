package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/glowmart/storefront-backend/api/routes"
	"github.com/glowmart/storefront-backend/internal/audit"
	"github.com/glowmart/storefront-backend/internal/cart"
	"github.com/glowmart/storefront-backend/internal/catalog"
	"github.com/glowmart/storefront-backend/internal/inventory"
	"github.com/glowmart/storefront-backend/internal/orders"
	"github.com/glowmart/storefront-backend/internal/payments"
	"github.com/glowmart/storefront-backend/internal/pricing"
	"github.com/glowmart/storefront-backend/internal/users"
	"github.com/glowmart/storefront-backend/pkg/config"
	"github.com/glowmart/storefront-backend/pkg/db"
	"github.com/glowmart/storefront-backend/pkg/logger"
	"github.com/glowmart/storefront-backend/pkg/metrics"
	"github.com/glowmart/storefront-backend/pkg/migrate"
	pkgredis "github.com/glowmart/storefront-backend/pkg/redis"
	"github.com/glowmart/storefront-backend/pkg/sslcommerz"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := sslcommerz.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	recMetrics := metrics.NewReconciliationMetrics(registry)

	conn := dbClient.DB()
	pricingEngine, err := pricing.NewEngine(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing engine", err)
		os.Exit(1)
	}
	inventorySvc, err := inventory.NewService(inventory.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	recorder := audit.NewRecorder(conn)
	ordersRepo := orders.NewRepository(conn)

	ordersSvc, err := orders.NewService(
		ordersRepo,
		dbClient,
		catalog.NewRepository(conn),
		cart.NewRepository(conn),
		pricingEngine,
		recorder,
		cfg.OrderNumbers,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(
		ordersRepo,
		payments.NewRepository(conn),
		dbClient,
		gateway,
		inventorySvc,
		recorder,
		users.NewRepository(conn),
		recMetrics,
		logg,
		cfg.Gateway,
		cfg.OrderNumbers,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, ordersSvc, paymentsSvc),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
