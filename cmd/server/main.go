package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/workshop-erp/internal/api"
	"github.com/Spok95/workshop-erp/internal/config"
	"github.com/Spok95/workshop-erp/internal/domain/calculator"
	"github.com/Spok95/workshop-erp/internal/domain/catalog"
	"github.com/Spok95/workshop-erp/internal/domain/funds"
	"github.com/Spok95/workshop-erp/internal/domain/inventory"
	"github.com/Spok95/workshop-erp/internal/domain/materials"
	"github.com/Spok95/workshop-erp/internal/domain/products"
	"github.com/Spok95/workshop-erp/internal/domain/staff"
	"github.com/Spok95/workshop-erp/internal/domain/worktypes"
	"github.com/Spok95/workshop-erp/internal/infra/archive"
	"github.com/Spok95/workshop-erp/internal/infra/db"
	httpx "github.com/Spok95/workshop-erp/internal/infra/http"
	"github.com/Spok95/workshop-erp/internal/infra/logger"
	"github.com/Spok95/workshop-erp/internal/infra/metrics"
	"github.com/Spok95/workshop-erp/internal/notify"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, using UTC", "tz", cfg.App.Timezone, "err", err)
		loc = time.UTC
	}

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return err
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return err
	}
	defer pool.Close()
	log.Info("db connected")

	m := metrics.New(prometheus.DefaultRegisterer)

	// nil *BotAPI нельзя заворачивать в интерфейс: notifier проверяет api == nil
	var sender notify.Sender
	bot, err := notify.NewTelegram(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed, alerts go to log", "err", err)
	} else if bot != nil {
		sender = bot
		log.Info("telegram connected", "bot", bot.Self.UserName)
	}
	notifier := notify.NewStockNotifier(sender, log, cfg.Telegram.AdminChatID, cfg.Telegram.Recipients, m.LowStockAlerts)

	store, err := archive.Open(ctx, archive.Config{
		Driver:    cfg.Archive.Driver,
		Dir:       cfg.Archive.Dir,
		Bucket:    cfg.Archive.Bucket,
		Region:    cfg.Archive.Region,
		Endpoint:  cfg.Archive.Endpoint,
		PathStyle: cfg.Archive.PathStyle,
		Prefix:    cfg.Archive.Prefix,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
	})
	if err != nil {
		log.Error("archive init failed", "err", err)
		return err
	}
	log.Info("archive ready", "driver", cfg.Archive.Driver)

	materialRepo := materials.NewRepo(pool)
	workTypeRepo := worktypes.NewRepo(pool)

	handler := api.New(api.Deps{
		Categories:    catalog.NewRepo(pool),
		Materials:     materialRepo,
		Inventory:     inventory.NewRepo(pool),
		Staff:         staff.NewRepo(pool),
		WorkTypes:     workTypeRepo,
		Products:      products.NewRepo(pool),
		Funds:         funds.NewRepo(pool),
		Calculator:    calculator.NewRepo(pool),
		Prices:        calculator.NewRepoPrices(materialRepo, workTypeRepo),
		Notifier:      notifier,
		Archive:       store,
		Metrics:       m,
		Log:           log,
		Now:           func() time.Time { return time.Now().In(loc) },
		DefaultMinQty: cfg.Stock.DefaultMinQty,
	}).Handler()

	srv := httpx.New(httpx.Options{
		Addr:          cfg.HTTP.Addr,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		ExposeMetrics: cfg.Metrics.Enabled,
	}, handler, m, log)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete")
	return nil
}
