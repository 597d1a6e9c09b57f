package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lmoraes-dev/exportdesk-backend/api/routes"
	"github.com/lmoraes-dev/exportdesk-backend/internal/cart"
	"github.com/lmoraes-dev/exportdesk-backend/internal/catalog"
	"github.com/lmoraes-dev/exportdesk-backend/internal/numbering"
	"github.com/lmoraes-dev/exportdesk-backend/internal/partition"
	"github.com/lmoraes-dev/exportdesk-backend/internal/quotes"
	"github.com/lmoraes-dev/exportdesk-backend/internal/rates"
	"github.com/lmoraes-dev/exportdesk-backend/internal/salespeople"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/config"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/db"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/logger"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/metrics"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/migrate"
	"github.com/lmoraes-dev/exportdesk-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	var rateCache rates.Cache
	if cfg.Exchange.CacheTTL > 0 {
		rateCache = rates.NewRedisCache(redisClient, cfg.Exchange.CacheTTL)
	}
	rateResolver, err := rates.NewResolver(
		rates.NewSettingsRepository(gormDB),
		rates.NewHTTPProvider(cfg.Exchange),
		rateCache,
		cfg.Exchange.Fallback(),
		cfg.Exchange.FromCurrency,
		cfg.Exchange.ToCurrency,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create rate resolver", err)
		os.Exit(1)
	}

	partitioner, err := partition.New(salespeople.NewLinkRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart partitioner", err)
		os.Exit(1)
	}

	productRepo := catalog.NewProductRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)

	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	quoteService, err := quotes.NewService(
		dbClient,
		quotes.NewRepository(gormDB),
		cartRepo,
		productRepo,
		partitioner,
		rateResolver,
		numbering.NewGormCounterStore(gormDB),
		metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			quoteService,
			cartService,
			catalog.NewCompanyRepository(gormDB),
			salespeople.NewRepository(gormDB),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
