package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/bot"
	"github.com/user/anime-notify-bot/internal/config"
	"github.com/user/anime-notify-bot/internal/jikan"
	"github.com/user/anime-notify-bot/internal/mal"
	"github.com/user/anime-notify-bot/internal/notify"
	"github.com/user/anime-notify-bot/internal/server"
	"github.com/user/anime-notify-bot/internal/store"
	"github.com/user/anime-notify-bot/internal/subscription"
	"github.com/user/anime-notify-bot/internal/syncer"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable stores: catalog + subscriptions
	mysqlStore, err := store.NewMySQLStore(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	// Remote providers
	malClient := mal.NewClient(&mal.ClientConfig{
		ClientID:  cfg.MAL.ClientID,
		BaseURL:   cfg.MAL.BaseURL,
		RateLimit: cfg.MAL.RateLimit,
		Timeout:   cfg.MAL.Timeout,
	})
	jikanClient := jikan.NewClient(cfg.Jikan.BaseURL, cfg.Jikan.Timeout)
	log.Info().Str("searchProvider", cfg.Search.Provider).Msg("Provider clients initialized")

	telegramClient, err := bot.NewClient(cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}
	log.Info().Msg("Telegram client initialized")

	// Notification scheduler: the job set is a derived cache, rebuilt
	// below from the stores.
	notifier := notify.NewNotifier(mysqlStore, bot.NewAnnouncer(telegramClient))

	var searchAPI subscription.SearchAPI
	var images bot.ImageFetcher
	if cfg.Search.Provider == "jikan" {
		searchAPI = jikanClient
		images = jikanClient
	}

	manager := subscription.NewManager(mysqlStore, malClient, searchAPI, notifier, cfg.Search.Limit)
	log.Info().Msg("Subscription manager initialized")

	if err := manager.RestoreJobs(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore notification jobs")
	}

	syncEngine := syncer.NewEngine(malClient, mysqlStore, &cfg.Sync)

	botHandler := bot.NewHandler(manager, mysqlStore, telegramClient, images)

	httpServer := server.NewServer(mysqlStore)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	syncEngine.Start(ctx)
	log.Info().Msg("Sync engine started")

	go func() {
		log.Info().Msg("Starting Telegram bot polling")
		updates := telegramClient.GetUpdates()
		for update := range updates {
			botHandler.HandleUpdate(ctx, update)
		}
	}()

	log.Info().Msg("Anime Notify Bot started successfully")

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop the sync engine from triggering new runs
	syncEngine.Stop()

	// 2. Stop the notification scheduler
	notifier.Stop()

	// 3. Stop Telegram bot polling
	telegramClient.StopReceivingUpdates()
	log.Info().Msg("Telegram bot polling stopped")

	// 4. Stop HTTP server
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 5. Close database connection pool
	if err := mysqlStore.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	} else {
		log.Info().Msg("Database connection closed")
	}

	cancel()

	select {
	case <-shutdownCtx.Done():
		if shutdownCtx.Err() == context.DeadlineExceeded {
			log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
		}
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
}
