package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rwbrr/playable-bot/internal/adminapi"
	"github.com/rwbrr/playable-bot/internal/builder"
	"github.com/rwbrr/playable-bot/internal/config"
	"github.com/rwbrr/playable-bot/internal/cryptopay"
	"github.com/rwbrr/playable-bot/internal/pricing"
	"github.com/rwbrr/playable-bot/internal/session"
	"github.com/rwbrr/playable-bot/internal/storage"
	"github.com/rwbrr/playable-bot/internal/telegram"
	"github.com/rwbrr/playable-bot/internal/watcher"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Initialize session store
	sessions, err := session.NewStore(cfg.SessionsDir)
	if err != nil {
		log.Error("init session store", "error", err)
		os.Exit(1)
	}
	log.Info("session store initialized", "dir", cfg.SessionsDir)

	// Initialize Crypto Pay client
	gateway := cryptopay.NewClient(cfg.CryptoPayBaseURL, cfg.CryptoPayToken, cfg.CryptoPayFiat, cfg.CryptoPayAcceptedAssets)
	if gateway.Enabled() {
		log.Info("crypto pay client initialized", "base_url", cfg.CryptoPayBaseURL)
	} else {
		log.Warn("crypto pay disabled, wallet balance is the only payment path")
	}

	// Initialize builder bridge and template library
	bridge := builder.NewBridge(".")
	library := builder.NewLibrary(cfg.LibraryDir)

	// Initialize pricing resolver
	resolver := pricing.NewResolver(store, cfg.Prices)

	// Initialize telegram bot
	bot, err := telegram.New(cfg, store, sessions, resolver, gateway, bridge, library, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drop leftover build artifacts from a previous run
	go func() {
		if err := bridge.Cleanup(ctx); err != nil {
			log.Warn("builder cleanup", "error", err)
		}
	}()

	// Start admin API server
	broadcasts := adminapi.NewBroadcastManager(store, bot, log)
	adminServer := adminapi.NewServer(store, broadcasts, cfg.AdminUser, cfg.AdminPass, log)
	go func() {
		if err := adminServer.Start(ctx, cfg.AdminPort); err != nil && err != http.ErrServerClosed {
			log.Error("admin api server", "error", err)
		}
	}()

	// Start invoice watcher
	if cfg.WatcherInterval > 0 {
		invoiceWatcher := watcher.New(store, gateway, bot, log)
		go invoiceWatcher.Start(ctx, time.Duration(cfg.WatcherInterval)*time.Second)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	// Start bot polling
	log.Info("starting bot polling...")
	bot.Start(ctx)
}
