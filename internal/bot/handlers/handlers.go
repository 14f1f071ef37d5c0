package handlers

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/ai"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
	"github.com/BaiBeiCha/smart-planner-bot/internal/repository"
	"github.com/BaiBeiCha/smart-planner-bot/internal/scheduler"
	"github.com/BaiBeiCha/smart-planner-bot/internal/weather"
)

type Repositories struct {
	User     *repository.UserRepository
	Reminder *repository.ReminderRepository
	Group    *repository.GroupRepository
}

type Handlers struct {
	api      *tgbotapi.BotAPI
	repos    *Repositories
	weather  *weather.Service
	ai       *ai.Client
	sched    *scheduler.Scheduler
	adminID  int64
	sessions *sessions
}

func New(api *tgbotapi.BotAPI, repos *Repositories, weatherSvc *weather.Service, aiClient *ai.Client, sched *scheduler.Scheduler, adminID int64) *Handlers {
	return &Handlers{
		api:      api,
		repos:    repos,
		weather:  weatherSvc,
		ai:       aiClient,
		sched:    sched,
		adminID:  adminID,
		sessions: newSessions(),
	}
}

// isAdmin reports whether the sender is the configured admin. An unset
// admin id means nobody is.
func (h *Handlers) isAdmin(userID int64) bool {
	return h.adminID != 0 && userID == h.adminID
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	// A command always interrupts whatever flow was in progress.
	if msg.Command() != "cancel" {
		h.sessions.clear(msg.From.ID)
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(msg)
	case "cancel":
		h.handleCancel(msg)
	case "profile":
		h.handleProfile(ctx, msg)
	case "add_reminder":
		h.handleAddReminderStart(ctx, msg)
	case "my_reminders":
		h.handleMyReminders(ctx, msg)
	case "weather":
		h.handleWeather(ctx, msg)
	case "user_info":
		h.handleUserInfo(ctx, msg)
	case "create_group":
		h.handleCreateGroupStart(ctx, msg)
	case "my_groups":
		h.handleMyGroups(ctx, msg)
	case "invite_to_group":
		h.handleInviteToGroup(ctx, msg)
	case "leave_group":
		h.handleLeaveGroup(ctx, msg)
	case "group_info":
		h.handleGroupInfo(ctx, msg)
	case "group_message":
		h.handleGroupMessageStart(ctx, msg)
	case "add_group_reminder":
		h.handleAddGroupReminderStart(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Неизвестная команда. Используйте /help для списка команд.")
	}
}

// HandleMessage routes plain text into whatever conversation step the
// user is currently in.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sess := h.sessions.get(msg.From.ID)

	switch sess.state {
	case stateRegisterUsername:
		h.handleRegisterUsername(ctx, msg, sess)
	case stateRegisterName:
		h.handleRegisterName(ctx, msg, sess)
	case stateRegisterCity:
		h.handleRegisterCity(ctx, msg, sess)
	case stateEditName:
		h.handleEditName(ctx, msg)
	case stateEditCity:
		h.handleEditCity(ctx, msg)
	case stateReminderTitle:
		h.handleReminderTitle(msg, sess)
	case stateReminderDescription:
		h.handleReminderDescription(msg, sess)
	case stateReminderTime:
		h.handleReminderTime(ctx, msg, sess)
	case stateGroupName:
		h.handleGroupName(msg, sess)
	case stateGroupDescription:
		h.handleGroupDescription(ctx, msg, sess)
	case stateGroupReminderTitle:
		h.handleGroupReminderTitle(msg, sess)
	case stateGroupReminderDescription:
		h.handleGroupReminderDescription(msg, sess)
	case stateGroupReminderTime:
		h.handleGroupReminderTime(ctx, msg, sess)
	case stateGroupMessageText:
		h.handleGroupMessageText(ctx, msg, sess)
	default:
		h.sendMessage(msg.Chat.ID, "Я вас не понял. Используйте /help для списка команд.")
	}
}

func (h *Handlers) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	answer := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.api.Request(answer); err != nil {
		logrus.WithError(err).Warn("Failed to answer callback query")
	}

	data := callback.Data
	switch {
	case data == "edit_name" || data == "edit_city":
		h.handleProfileCallback(ctx, callback)
	case strings.HasPrefix(data, "rec:"):
		h.handleReminderRecurrence(ctx, callback)
	case strings.HasPrefix(data, "del_rem:"):
		h.handleDeleteReminder(ctx, callback)
	}
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID, `📖 Доступные команды:

/add_reminder - Добавить напоминание
/my_reminders - Мои активные напоминания
/weather - Погода в вашем городе
/profile - Мой профиль

Группы:
/create_group - Создать группу
/my_groups - Мои группы
/invite_to_group <group_id> <username> - Пригласить в группу
/leave_group <group_id> - Покинуть группу
/group_info <group_id> - Информация о группе
/group_message <group_id> - Сообщение всем участникам
/add_group_reminder <group_id> - Напоминание для всей группы

/cancel - Отменить текущее действие`)
}

func (h *Handlers) handleCancel(msg *tgbotapi.Message) {
	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, "Действие отменено.")
}

// requireUser loads the registered user behind a message, prompting
// for /start when there is none.
func (h *Handlers) requireUser(ctx context.Context, msg *tgbotapi.Message) *models.User {
	user, err := h.repos.User.GetByTelegramID(ctx, msg.From.ID)
	if errors.Is(err, models.ErrNotFound) {
		h.sendMessage(msg.Chat.ID, "Вы не зарегистрированы. Используйте /start для регистрации.")
		return nil
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load user %d", msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Произошла ошибка, попробуйте позже.")
		return nil
	}
	return user
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := h.api.Send(msg); err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
}

func (h *Handlers) sendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = markup
	if _, err := h.api.Send(msg); err != nil {
		logrus.WithError(err).Errorf("Failed to send message to chat %d", chatID)
	}
}

func (h *Handlers) editMessageText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := h.api.Send(edit); err != nil {
		logrus.WithError(err).Error("Failed to edit message")
	}
}
