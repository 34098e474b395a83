// Package main запускает HTTP-сервер сервиса каршеринга.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/carsharing-system/internal/checkout"
	"github.com/mmeshcher/carsharing-system/internal/config"
	"github.com/mmeshcher/carsharing-system/internal/handler"
	"github.com/mmeshcher/carsharing-system/internal/middleware"
	"github.com/mmeshcher/carsharing-system/internal/notify"
	"github.com/mmeshcher/carsharing-system/internal/repository"
	"github.com/mmeshcher/carsharing-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	if cfg.CheckoutSecretKey == "" {
		sugar.Warn("checkout secret key is not set, payment creation will fail")
	}
	if cfg.JWTSecret == "" {
		sugar.Warn("jwt secret is not set, all authenticated requests will be rejected")
	}

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	redisClient, err := newRedis(cfg.RedisAddr)
	if err != nil {
		sugar.Fatalw("redis initialization error", "error", err.Error())
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	provider := checkout.NewClient(cfg.CheckoutSecretKey, cfg.CheckoutAPIURL, logger)

	vehicles := service.NewVehicleService(repo, logger)
	rentals := service.NewRentalService(repo, repo, notifier, logger)
	payments := service.NewPaymentService(repo, provider, notifier, service.PaymentConfig{
		Currency:   cfg.CheckoutCurrency,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}, logger)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	h := handler.NewHandler(vehicles, rentals, payments, logger, authMiddleware, redisClient)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая сверка неоплаченных платежей, если задан период
	g.Go(func() error {
		payments.StartPendingReconciliation(ctx, cfg.ReconcileInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting carsharing server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// newNotifier выбирает канал уведомлений: Kafka, затем Telegram, иначе журнал.
func newNotifier(cfg *config.Config, logger *zap.Logger) (service.Notifier, func()) {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		sink := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("notifications go to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return sink, func() {
			if err := sink.Close(); err != nil {
				logger.Warn("close kafka writer", zap.Error(err))
			}
		}
	case cfg.TelegramBotToken != "":
		logger.Info("notifications go to telegram")
		return notify.NewTelegramSink(cfg.TelegramAPIURL, cfg.TelegramBotToken, cfg.TelegramChatID), func() {}
	default:
		logger.Info("notifications go to log")
		return notify.NewLogSink(logger), func() {}
	}
}

func newRedis(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
