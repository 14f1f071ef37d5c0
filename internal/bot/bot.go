package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/ai"
	"github.com/BaiBeiCha/smart-planner-bot/internal/bot/handlers"
	"github.com/BaiBeiCha/smart-planner-bot/internal/scheduler"
	"github.com/BaiBeiCha/smart-planner-bot/internal/weather"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
}

func New(api *tgbotapi.BotAPI, repos *handlers.Repositories, weatherSvc *weather.Service, aiClient *ai.Client, sched *scheduler.Scheduler, adminID int64) *Bot {
	return &Bot{
		api:      api,
		handlers: handlers.New(api, repos, weatherSvc, aiClient, sched, adminID),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	logrus.Infof("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Panic while handling update: %v", r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handlers.HandleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
