package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/kvstore"
	"github.com/angelmondragon/storefront-cart/internal/orders"
	"github.com/angelmondragon/storefront-cart/internal/pricing"
	"github.com/angelmondragon/storefront-cart/internal/session"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/instance"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/migrate"
	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i].Close())
		}
		if errs != nil {
			logg.Error(context.Background(), "error closing resources", errs)
		}
	}()

	kv, pinger, closer, err := bootstrapStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cart storage", err)
		os.Exit(1)
	}
	closers = append(closers, closer)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	oracle, err := pricing.NewClient(cfg.Pricing, pricing.WithMetrics(cartMetrics))
	if err != nil {
		logg.Error(ctx, "failed to create pricing client", err)
		os.Exit(1)
	}

	submitter, err := newSubmitter(cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create order submitter", err)
		os.Exit(1)
	}
	if c, ok := submitter.(io.Closer); ok {
		closers = append(closers, c)
	}

	carts, err := cart.NewRegistry(cart.RegistryDeps{
		Oracle:    oracle,
		Store:     kv,
		Submitter: submitter,
		Metrics:   cartMetrics,
		Logger:    logg,
	}, cart.RegistryOptions{
		StorageKey:    cfg.Cart.StorageKey,
		SchemaVersion: cfg.Cart.SchemaVersion,
		Engine: cart.Options{
			DefaultCompanyID:   cfg.Cart.DefaultCompanyID,
			DefaultMaxQuantity: cfg.Cart.DefaultMaxQuantity,
			Summary: cart.SummaryPolicy{
				ShippingCost:          cfg.Cart.ShippingCost(),
				FreeShippingThreshold: cfg.Cart.FreeShippingThreshold,
			},
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart registry", err)
		os.Exit(1)
	}

	sessions, err := session.NewService(carts, logg)
	if err != nil {
		logg.Error(ctx, "failed to create session service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"storage":  cfg.Cart.StorageDriver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:   cfg,
			Logger:   logg,
			Session:  sessions,
			Gatherer: registry,
			Ready:    map[string]controllers.Pinger{"store": pinger},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(context.WithoutCancel(ctx), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "api server shutdown failed", err)
	}
	carts.Wait()
}

// bootstrapStore opens the backing store selected by STOREFRONT_CART_STORAGE.
func bootstrapStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cart.KeyValueStore, controllers.Pinger, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Cart.StorageDriver)) {
	case config.CartStorageRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		return client, client, client, nil
	default:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		return kvstore.NewRepository(client.DB()), client, client, nil
	}
}

func newSubmitter(cfg *config.Config, logg *logger.Logger) (cart.OrderSubmitter, error) {
	if !cfg.Kafka.Enabled() {
		logg.Warn(context.Background(), "kafka brokers not configured, checkout submissions are logged only")
		return orders.NewNoopSubmitter(logg), nil
	}
	submitter, err := orders.NewKafkaSubmitter(cfg.Kafka, logg)
	if err != nil {
		return nil, err
	}
	return submitter, nil
}
