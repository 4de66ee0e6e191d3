package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tutorhub/internal/app"
	"tutorhub/internal/config"
	"tutorhub/internal/server"
	"tutorhub/internal/util"
	"tutorhub/pkg/queue"
	"tutorhub/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	refreshTTL, err := config.ParseRefreshTTL(cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("failed to parse refresh TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var objects storage.ObjectStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object storage: %v", err)
		}
	}

	var deliveries *queue.RedisDeliveryQueue
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		deliveries, err = queue.NewRedisDeliveryQueue(queue.RedisQueueConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.NotifyStream,
			Group:    cfg.NotifyGroup,
		})
		if err != nil {
			log.Fatalf("failed to init delivery queue: %v", err)
		}
	}

	appCfg := app.Config{
		DatabaseURL:     cfg.DatabaseURL,
		RedisAddr:       cfg.RedisAddr,
		RedisPassword:   cfg.RedisPassword,
		SessionStrategy: cfg.SessionStrategy,
		SessionTTL:      sessionTTL,
		RefreshTTL:      refreshTTL,
		JWTSecret:       cfg.JWTSecret,
		AdminPhone:      cfg.AdminPhone,
		AdminPassword:   cfg.AdminPassword,
		Objects:         objects,
	}
	if deliveries != nil {
		appCfg.Notifier = deliveries
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
		TrustedProxies:             cfg.TrustedProxyCIDRs,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if deliveries != nil {
		concurrency := cfg.NotifyConcurrency
		if concurrency <= 0 {
			concurrency = 2
		}
		g.Go(func() error {
			deliveries.Start(ctx, concurrency, func(ctx context.Context, d queue.Delivery) error {
				// Push channels (SMS, app push) plug in here; for now a
				// delivery is complete once it is logged.
				slog.Info("notification delivered", "notification_id", d.NotificationID, "delivery_id", d.ID)
				return nil
			})
			<-ctx.Done()
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}
