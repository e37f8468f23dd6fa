package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/larriantoniy/tg_sales_bot/internal/adapters/crm"
	"github.com/larriantoniy/tg_sales_bot/internal/adapters/shop"
	"github.com/larriantoniy/tg_sales_bot/internal/adapters/store"
	"github.com/larriantoniy/tg_sales_bot/internal/adapters/tg"
	"github.com/larriantoniy/tg_sales_bot/internal/config"
	"github.com/larriantoniy/tg_sales_bot/internal/metrics"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
	"github.com/larriantoniy/tg_sales_bot/internal/useCases"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := setupLogger(cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("salesbot stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("exit")
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	catalog, err := config.NewFileCatalogRepo(cfg.CatalogPath).LoadCatalog(ctx)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "items", len(catalog), "path", cfg.CatalogPath)

	sessionCfg, err := tg.LoadSessionConfig(cfg.BaseDir, cfg.Telegram)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var sessions ports.SessionStore
	switch cfg.Sessions.Store {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		sessions = store.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
	default:
		mem := store.NewMemoryStore(logger)
		if cfg.Sessions.TTL > 0 {
			g.Go(func() error {
				mem.RunSweeper(ctx, cfg.Sessions.SweepInterval)
				return nil
			})
		}
		sessions = mem
	}
	logger.Info("session store ready", "store", cfg.Sessions.Store, "ttl", cfg.Sessions.TTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sender := useCases.NewSender(logger, cfg.OwnerChatID)
	opts := []useCases.ConversationOption{useCases.WithOwnerNotifier(sender)}
	if cfg.ProductInfo.Enabled {
		scraper, err := shop.NewScraper(cfg.ProductInfo, logger)
		if err != nil {
			return err
		}
		opts = append(opts, useCases.WithProductInfo(scraper))
	}

	conv := useCases.NewConversation(
		logger,
		useCases.NewRegistry(sessions, cfg.Sessions.TTL),
		catalog,
		crm.NewClient(cfg.CRM, logger),
		m,
		opts...,
	)
	metrics.RegisterActiveSessions(reg, func() float64 {
		return float64(conv.ActiveSessions(context.Background()))
	})

	factory := func(l *slog.Logger) (ports.TelegramClient, error) {
		return tg.NewBotClient(cfg.BaseDir, sessionCfg, l.With("session", sessionCfg.SessionName))
	}
	runner := useCases.NewRunner(logger, factory, conv, sender)

	g.Go(func() error {
		return runner.Run(ctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, cfg.MetricsAddr, reg, logger)
		})
	}

	return g.Wait()
}

func setupLogger(env string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		logger = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return logger
}
