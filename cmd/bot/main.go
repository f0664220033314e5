// Package main runs the result ledger bot:
// - Inbound chat events (Bot API long polling, optional websocket relay feed)
// - Result recording, prediction launch and verification
// - Daily rollover (export, archive, re-import, reset)
// - HTTP health, status and metrics
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/catalog"
	"baccarat-ledger/internal/config"
	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
	"baccarat-ledger/internal/httpapi"
	"baccarat-ledger/internal/ledger"
	"baccarat-ledger/internal/logger"
	"baccarat-ledger/internal/orchestrator"
	"baccarat-ledger/internal/scheduler"
	"baccarat-ledger/internal/storage/backend"
	"baccarat-ledger/internal/telegram"
	"baccarat-ledger/internal/verification"
	"baccarat-ledger/internal/wsfeed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("shutdown requested", zap.String("signal", sig.String()))
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Warn("second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, log)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("bot stopped", zap.Error(err))
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	loc := cfg.RolloverLocation()

	stores, err := backend.Open(ctx, cfg.StoreConfig, log.Named("storage"))
	if err != nil {
		return err
	}
	defer stores.Close()

	l := ledger.New(ledger.Options{
		Store:     stores.Results,
		Extractor: extractor.New(extractor.Options{Location: loc}),
		Location:  loc,
		Logger:    log.Named("ledger"),
	})
	if err := l.Load(ctx); err != nil {
		log.Warn("starting with an empty ledger", zap.Error(err))
	}

	c := catalog.New(catalog.Options{
		Store:  stores.Predictions,
		Logger: log.Named("catalog"),
	})
	if err := c.Load(ctx); err != nil {
		log.Warn("starting with an empty prediction catalog", zap.Error(err))
	}

	tg, err := telegram.New(telegram.Options{Token: cfg.BotToken, Logger: log.Named("telegram")})
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		Ledger:     l,
		Catalog:    c,
		Verifier:   verification.New(log.Named("verifier")),
		Settings:   stores.Settings,
		Archives:   stores.Archives,
		Outbound:   tg,
		Downloader: tg,
		AdminID:    cfg.AdminID,
		Defaults: domain.Settings{
			StatChannel:    cfg.StatChannel,
			DisplayChannel: cfg.DisplayChannel,
		},
		Tolerance: cfg.Tolerance,
		Location:  loc,
		Logger:    log.Named("orchestrator"),
	})
	if err := orch.LoadSettings(ctx); err != nil {
		log.Warn("using default channel settings", zap.Error(err))
	}

	events, err := inbound(ctx, cfg, tg, log)
	if err != nil {
		return err
	}

	// Daily rollover
	cron := scheduler.New(ctx, loc, log.Named("cron"))
	id, err := cron.Add("rollover", cfg.RolloverCron, func(ctx context.Context) {
		if _, err := orch.Rollover(ctx); err != nil {
			log.Error("rollover failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}
	cron.Start()
	defer cron.Stop()
	log.Info("rollover scheduled", zap.Time("next", cron.Next(id)))

	// Start HTTP server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := httpapi.New(orch, log.Named("http")).Run(ctx, addr); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	log.Info("bot started",
		zap.String("storage", cfg.Storage),
		zap.Int64("stat_channel", orch.Settings().StatChannel),
		zap.Int64("display_channel", orch.Settings().DisplayChannel),
	)
	return orch.Run(ctx, events)
}

// inbound merges the Bot API stream with the relay feed when configured.
func inbound(ctx context.Context, cfg config.Config, tg *telegram.Client, log *zap.Logger) (<-chan bus.Event, error) {
	tgEvents, err := tg.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("start long polling: %w", err)
	}
	if cfg.FeedWSURL == "" {
		return tgEvents, nil
	}

	feed, err := wsfeed.Dial(ctx, cfg.FeedWSURL, nil, log.Named("wsfeed"))
	if err != nil {
		return nil, fmt.Errorf("connect relay feed: %w", err)
	}
	feedEvents, err := feed.Events(ctx)
	if err != nil {
		return nil, err
	}
	return bus.Merge(ctx, tgEvents, feedEvents), nil
}
