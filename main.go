// Package main is the entry point for the budget health Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/budget-health/internal/bot"
	"gitlab.com/yelinaung/budget-health/internal/budget"
	"gitlab.com/yelinaung/budget-health/internal/config"
	"gitlab.com/yelinaung/budget-health/internal/database"
	"gitlab.com/yelinaung/budget-health/internal/gemini"
	"gitlab.com/yelinaung/budget-health/internal/ledger"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"gitlab.com/yelinaung/budget-health/internal/repository"
	"gitlab.com/yelinaung/budget-health/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("budget-health %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.OTelServiceName,
		Version:     version,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	users := repository.NewUserRepository(pool)
	categories := repository.NewCategoryRepository(pool)
	expenses := repository.NewExpenseRepository(pool)

	clock := budget.SystemClock{Location: cfg.Location()}
	budgetService := budget.NewService(categories, expenses,
		budget.WithClock(clock),
		budget.WithCache(budget.NewSnapshotCache()),
	)

	var catalogOpts []ledger.CategoryOption
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Gemini unavailable, essential flags will use keyword matching")
		} else {
			catalogOpts = append(catalogOpts, ledger.WithSuggester(geminiClient))
		}
	}

	telegramBot, err := bot.New(cfg, bot.Deps{
		Users:      users,
		Categories: categories,
		Expenses:   expenses,
		Budget:     budgetService,
		Ledger:     ledger.NewExpenseService(categories, expenses, budgetService, clock),
		Catalog:    ledger.NewCategoryService(categories, budgetService, catalogOpts...),
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	logger.Log.Info().
		Str("version", version).
		Str("timezone", clock.Now().Location().String()).
		Msg("Budget health bot starting")

	telegramBot.Start(ctx)
}
