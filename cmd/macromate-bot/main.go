package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"macromate-client/internal/api"
	"macromate-client/internal/config"
	"macromate-client/internal/favorites"
	"macromate-client/internal/goals"
	"macromate-client/internal/planner"
	"macromate-client/internal/recipe"
	"macromate-client/internal/session"
	"macromate-client/internal/shopping"
	"macromate-client/internal/telegram"
	"macromate-client/pkg/logger"
)

func main() {
	log := logger.New()
	defer log.Sync()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	tokens := session.NewTokenStore(cfg.TokenPath())
	client := api.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, tokens)
	sessionStore := session.NewStore(client, tokens, log)
	goalsResource := goals.NewResource(client)

	cache, err := recipe.OpenCache(cfg.CacheDBPath(), log)
	if err != nil {
		log.Fatalf("Failed to open recipe cache: %v", err)
	}
	defer cache.Close()

	bot, err := telegram.NewBot(
		cfg,
		log,
		sessionStore,
		goalsResource,
		planner.NewWorkflow(client, goalsResource, log),
		shopping.NewResource(client, log),
		recipe.NewService(client, cache, log),
		favorites.NewResource(client),
	)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Restore any persisted session before handling the first update.
	sessionStore.Initialize(ctx)

	log.Infow("bot started", "api_url", cfg.APIBaseURL)
	if err := bot.Run(ctx); err != nil {
		log.Fatalf("Bot stopped: %v", err)
	}
	log.Info("bot exiting")
}
