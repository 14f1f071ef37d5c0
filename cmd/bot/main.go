package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/ai"
	"github.com/BaiBeiCha/smart-planner-bot/internal/bot"
	"github.com/BaiBeiCha/smart-planner-bot/internal/bot/handlers"
	"github.com/BaiBeiCha/smart-planner-bot/internal/config"
	"github.com/BaiBeiCha/smart-planner-bot/internal/database"
	"github.com/BaiBeiCha/smart-planner-bot/internal/repository"
	"github.com/BaiBeiCha/smart-planner-bot/internal/scheduler"
	"github.com/BaiBeiCha/smart-planner-bot/internal/weather"
	"github.com/BaiBeiCha/smart-planner-bot/pkg/logger"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}
	if cfg.TelegramToken == "" {
		logrus.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logrus.Info("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}
	logrus.Info("Database migrations completed")

	userRepo := repository.NewUserRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	weatherRepo := repository.NewWeatherRepository(db)

	weatherSvc := weather.New(cfg.OpenWeatherAPIKey, weatherRepo)

	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		logrus.Infof("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		logrus.Info("AI client not configured, natural language date parsing limited to built-in formats")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logrus.Fatalf("Failed to create Telegram API: %v", err)
	}

	sched := scheduler.New(reminderRepo, userRepo, weatherSvc)
	sched.SetNotifier(bot.NewNotifier(api))
	if err := sched.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	repos := &handlers.Repositories{
		User:     userRepo,
		Reminder: reminderRepo,
		Group:    groupRepo,
	}
	b := bot.New(api, repos, weatherSvc, aiClient, sched, cfg.AdminUserID)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logrus.Info("Shutting down...")
		cancel()
	}()

	logrus.Info("Starting bot...")
	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("Bot error: %v", err)
	}
}
