// Package main запускает HTTP-сервер сервиса оформления заказа.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront-checkout/internal/config"
	"github.com/mmeshcher/storefront-checkout/internal/handler"
	"github.com/mmeshcher/storefront-checkout/internal/middleware"
	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/service"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
)

func main() {
	logger, _ := zap.NewProduction()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	code := 0
	cfg, err := config.Parse()
	if err == nil {
		err = run(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("application terminated with error", zap.Error(err))
		code = 1
	}

	stop()
	_ = logger.Sync()
	os.Exit(code)
}

// run собирает зависимости и обслуживает запросы до отмены контекста.
// Ресурсы освобождаются до возврата, в том числе при ошибке запуска.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()

	repo, err := openRepository(cfg, sugar)
	if err != nil {
		return fmt.Errorf("session store initialization: %w", err)
	}

	var api service.Storefront
	if cfg.StorefrontAPIAddress != "" {
		api = storefront.NewClient(cfg.StorefrontAPIAddress, logger.Named("storefront"))
	} else {
		sugar.Warn("storefront api address is not set, coupons, coins and order timeline are unavailable")
	}

	shipping := model.ShippingRule{
		FreeThreshold: cfg.FreeShippingThreshold,
		FlatFee:       cfg.ShippingFlatFee,
	}

	svc := service.NewService(repo, api, shipping, cfg.SessionTTL, logger.Named("service"))
	defer func() {
		if err := svc.Close(); err != nil {
			sugar.Warnw("close session store", "error", err)
		}
	}()

	sessions := middleware.NewSessionMiddleware(cfg.SessionSecret, cfg.SessionTTL)
	h := handler.NewHandler(svc, logger, sessions)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Очистка простаивающих сеансов
	g.Go(func() error {
		svc.StartSessionSweeper(ctx)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting checkout server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

// openRepository выбирает хранилище сеансов: Redis, затем PostgreSQL, иначе память процесса.
func openRepository(cfg *config.Config, sugar *zap.SugaredLogger) (service.Repository, error) {
	switch {
	case cfg.RedisAddress != "":
		sugar.Infow("using redis session store", "addr", cfg.RedisAddress)
		return repository.NewRedisRepository(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
	case cfg.DatabaseURI != "":
		sugar.Info("using postgres session store")
		return repository.NewPostgresRepository(cfg.DatabaseURI)
	default:
		sugar.Warn("no session store configured, sessions are kept in memory")
		return repository.NewMemoryRepository(), nil
	}
}
