package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/dateparse"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
	"github.com/BaiBeiCha/smart-planner-bot/internal/timezone"
)

const timePrompt = `🕒 Введите дату и время напоминания.
Вы можете использовать:
1. Естественный язык:
   - "через 15 минут"
   - "завтра в 18:00"
   - "today at 17:00"
2. Точный формат: ДД.ММ.ГГГГ ЧЧ:ММ
Ваш текущий часовой пояс: %s`

func (h *Handlers) handleAddReminderStart(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	sess := h.sessions.get(msg.From.ID)
	sess.state = stateReminderTitle
	sess.timezone = user.Timezone
	h.sendMessage(msg.Chat.ID, "Введите название (заголовок) напоминания:")
}

func (h *Handlers) handleReminderTitle(msg *tgbotapi.Message, sess *session) {
	title := strings.TrimSpace(msg.Text)

	if len([]rune(title)) < 1 || len([]rune(title)) > 200 {
		h.sendMessage(msg.Chat.ID, "Название должно быть от 1 до 200 символов. Попробуйте еще раз:")
		return
	}

	sess.title = title
	sess.state = stateReminderDescription
	h.sendMessage(msg.Chat.ID, "Введите описание (можно пропустить - skip):")
}

func (h *Handlers) handleReminderDescription(msg *tgbotapi.Message, sess *session) {
	description := strings.TrimSpace(msg.Text)
	if description == "skip" {
		description = ""
	}

	sess.description = description
	sess.state = stateReminderTime
	h.sendMessage(msg.Chat.ID, fmt.Sprintf(timePrompt, sess.timezone))
}

func (h *Handlers) handleReminderTime(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	remindAt, ok := h.parseDueTime(ctx, msg.Text, sess.timezone)
	if !ok {
		h.sendMessage(msg.Chat.ID,
			"⚠️ Не удалось распознать дату и время, либо время в прошлом.\nПопробуйте написать проще (например, 'через 20 минут') или используйте формат ДД.ММ.ГГГГ ЧЧ:ММ.")
		return
	}

	sess.remindAt = remindAt
	sess.state = stateReminderRecurrence

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Нет", "rec:none")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Ежедневно", "rec:daily")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Еженедельно", "rec:weekly")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Ежемесячно", "rec:monthly")),
	)
	h.sendMessageWithMarkup(msg.Chat.ID, "Напоминание должно повторяться?", markup)
}

func (h *Handlers) handleReminderRecurrence(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	sess := h.sessions.get(callback.From.ID)
	if sess.state != stateReminderRecurrence {
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "⏰ Этот выбор уже неактуален.")
		return
	}

	pattern := strings.TrimPrefix(callback.Data, "rec:")
	if pattern == "none" {
		pattern = ""
	}

	reminder := &models.Reminder{
		UserID:           callback.From.ID,
		Title:            sess.title,
		Description:      sess.description,
		RemindAt:         sess.remindAt,
		Timezone:         sess.timezone,
		IsRecurring:      pattern != "",
		RecurringPattern: pattern,
	}

	if err := h.repos.Reminder.Create(ctx, reminder); err != nil {
		logrus.WithError(err).Errorf("Failed to create reminder for user %d", callback.From.ID)
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "Не удалось создать напоминание, попробуйте позже.")
		return
	}

	h.sessions.clear(callback.From.ID)

	display := reminder.RemindAt.Format("02.01.2006 15:04") + " UTC"
	if local, err := timezone.ToLocal(reminder.RemindAt, reminder.Timezone); err == nil {
		display = local.Format("02.01.2006 15:04")
	}

	h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, fmt.Sprintf(
		"✅ Напоминание создано!\n📌 %s\n⏰ %s\n🔄 %s",
		reminder.Title, display, recurrenceText(pattern)))
}

func (h *Handlers) handleMyReminders(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	reminders, err := h.repos.Reminder.GetPendingByUserID(ctx, user.TelegramID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list reminders for user %d", user.TelegramID)
		h.sendMessage(msg.Chat.ID, "Не удалось получить список напоминаний.")
		return
	}

	if len(reminders) == 0 {
		h.sendMessage(msg.Chat.ID, "У вас нет активных напоминаний.")
		return
	}

	h.sendMessage(msg.Chat.ID, "🔔 Ваши активные напоминания:")

	for _, r := range reminders {
		display := r.RemindAt.Format("02.01.2006 15:04") + " UTC"
		if local, err := timezone.ToLocal(r.RemindAt, user.Timezone); err == nil {
			display = local.Format("02.01.2006 15:04")
		}

		text := fmt.Sprintf("📌 *%s*\n%s\n⏰ %s", r.Title, r.Description, display)
		if r.IsRecurring {
			text += fmt.Sprintf("\n🔄 %s", recurrenceText(r.RecurringPattern))
		}

		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить", fmt.Sprintf("del_rem:%d", r.ID)),
			),
		)
		h.sendMessageWithMarkup(msg.Chat.ID, text, markup)
	}
}

// handleDeleteReminder routes the delete button through the
// scheduler's cancellation interface, so the race with an in-flight
// dispatch stays safe.
func (h *Handlers) handleDeleteReminder(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	reminderID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, "del_rem:"), 10, 64)
	if err != nil {
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "Ошибка обработки команды.")
		return
	}

	if h.sched.Cancel(ctx, reminderID) {
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "✅ Напоминание удалено.")
	} else {
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "⚠️ Напоминание уже удалено или не найдено.")
	}
}

// parseDueTime resolves user input to a UTC due time: exact format and
// simple natural language first, AI fallback when configured. Past
// times are rejected.
func (h *Handlers) parseDueTime(ctx context.Context, text, tz string) (time.Time, bool) {
	now := time.Now().UTC()

	remindAt, err := dateparse.Parse(text, tz, now)
	if err != nil && h.ai != nil {
		remindAt, err = h.ai.ResolveDateTime(ctx, text, tz, now)
	}
	if err != nil {
		return time.Time{}, false
	}

	if !remindAt.After(now) {
		return time.Time{}, false
	}
	return remindAt, true
}

func recurrenceText(pattern string) string {
	switch pattern {
	case models.PatternDaily:
		return "Ежедневно"
	case models.PatternWeekly:
		return "Еженедельно"
	case models.PatternMonthly:
		return "Ежемесячно"
	default:
		return "Без повтора"
	}
}
