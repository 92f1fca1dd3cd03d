// Package main запускает HTTP-сервер платёжного сервиса.
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

	"github.com/mmeshcher/payment-service/internal/config"
	"github.com/mmeshcher/payment-service/internal/handler"
	"github.com/mmeshcher/payment-service/internal/metrics"
	"github.com/mmeshcher/payment-service/internal/repository"
	"github.com/mmeshcher/payment-service/internal/service"
	"github.com/mmeshcher/payment-service/internal/validation"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewAccountStore(ctx, cfg.Store())
	if err != nil {
		sugar.Fatalw("account store initialization error", "error", err.Error(), "type", cfg.DataStoreType)
	}
	defer store.Close()

	m := metrics.New()
	svc := service.NewService(store, validation.NewFactory(), service.WithMetrics(m))
	h := handler.NewHandler(svc, logger, m, handler.WithThrottle(handler.Throttle{
		Limit:          cfg.MaxInFlight,
		Backlog:        cfg.MaxInFlight,
		BacklogTimeout: 5 * time.Second,
		RetryAfter:     time.Second,
	}))

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting payment server", "addr", cfg.RunAddress, "store", cfg.DataStoreType, "max_in_flight", cfg.MaxInFlight)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
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

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
