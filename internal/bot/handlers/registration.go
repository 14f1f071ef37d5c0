package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
	"github.com/BaiBeiCha/smart-planner-bot/internal/timezone"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	existing, err := h.repos.User.GetByTelegramID(ctx, msg.From.ID)
	if err == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf(
			"Привет, %s! 👋\nВы уже зарегистрированы в системе.\n\nДоступные команды:\n/add_reminder - Добавить напоминание\n/profile - Мой профиль\n/help - Помощь",
			existing.Name))
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		logrus.WithError(err).Errorf("Failed to look up user %d", msg.From.ID)
		return
	}

	sess := h.sessions.get(msg.From.ID)

	// Prefill from the Telegram profile when possible.
	if msg.From.UserName != "" {
		if _, err := h.repos.User.GetByUsername(ctx, msg.From.UserName); errors.Is(err, models.ErrNotFound) {
			sess.username = msg.From.UserName

			fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
			if fullName != "" {
				sess.name = fullName
				sess.state = stateRegisterCity
				h.sendMessage(msg.Chat.ID, "Введите город, в котором вы живете (например, Москва):")
				return
			}

			sess.state = stateRegisterName
			h.sendMessage(msg.Chat.ID, "Введите ваше полное имя:")
			return
		}
	}

	sess.state = stateRegisterUsername
	h.sendMessage(msg.Chat.ID,
		"Добро пожаловать в Умный Планировщик! 👋\nДавайте зарегистрируемся. Придумайте себе уникальное имя пользователя (без @):")
}

func (h *Handlers) handleRegisterUsername(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	username := strings.TrimSpace(msg.Text)

	if !usernameRe.MatchString(username) {
		h.sendMessage(msg.Chat.ID,
			"Имя пользователя должно содержать от 3 до 20 символов (латинские буквы, цифры, _).\nПопробуйте еще раз:")
		return
	}

	if _, err := h.repos.User.GetByUsername(ctx, username); err == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Пользователь с именем @%s уже существует. Выберите другое имя:", username))
		return
	}

	sess.username = username
	sess.state = stateRegisterName
	h.sendMessage(msg.Chat.ID, "Отлично! Теперь введите ваше полное имя:")
}

func (h *Handlers) handleRegisterName(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	name := strings.TrimSpace(msg.Text)

	if len([]rune(name)) < 2 || len([]rune(name)) > 100 {
		h.sendMessage(msg.Chat.ID, "Имя должно быть от 2 до 100 символов. Попробуйте еще раз:")
		return
	}

	sess.name = name
	sess.state = stateRegisterCity
	h.sendMessage(msg.Chat.ID, "Почти готово! Введите город, в котором вы живете (например, Москва):")
}

func (h *Handlers) handleRegisterCity(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	city := strings.TrimSpace(msg.Text)

	tz, ok := timezone.Resolve(city)
	if !ok {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf(
			"Не удалось определить часовой пояс для города '%s'.\nПожалуйста, введите название города более точно, либо укажите часовой пояс в формате IANA (например, Europe/Moscow):", city))
		return
	}

	user := &models.User{
		TelegramID: msg.From.ID,
		Username:   sess.username,
		Name:       sess.name,
		City:       city,
		Timezone:   tz,
	}

	if err := h.repos.User.Create(ctx, user); err != nil {
		logrus.WithError(err).Errorf("Failed to create user %d", msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Не удалось завершить регистрацию, попробуйте позже.")
		return
	}

	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"🎉 Поздравляю, %s! Вы успешно зарегистрированы.\nВаш часовой пояс установлен как: %s.\n\nТеперь вы можете добавлять напоминания с помощью команды /add_reminder.",
		user.Name, tz))
}

func (h *Handlers) handleProfile(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	text := fmt.Sprintf(
		"👤 Ваш профиль:\n\nID: `%d`\nИмя: %s\nИмя пользователя: @%s\nГород: %s\nЧасовой пояс: %s\nДата регистрации: %s",
		user.TelegramID, user.Name, user.Username, user.City, user.Timezone,
		user.CreatedAt.Format("2006-01-02"))

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить имя", "edit_name")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏙️ Изменить город", "edit_city")),
	)
	h.sendMessageWithMarkup(msg.Chat.ID, text, markup)
}

func (h *Handlers) handleProfileCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	sess := h.sessions.get(callback.From.ID)

	switch callback.Data {
	case "edit_name":
		sess.state = stateEditName
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "Введите новое имя:")
	case "edit_city":
		sess.state = stateEditCity
		h.editMessageText(callback.Message.Chat.ID, callback.Message.MessageID, "Введите новый город:")
	}
}

func (h *Handlers) handleEditName(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.Text)

	if len([]rune(name)) < 2 || len([]rune(name)) > 100 {
		h.sendMessage(msg.Chat.ID, "Имя должно быть от 2 до 100 символов. Попробуйте еще раз:")
		return
	}

	if err := h.repos.User.UpdateName(ctx, msg.From.ID, name); err != nil {
		logrus.WithError(err).Errorf("Failed to update name for user %d", msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Ошибка: не удалось изменить имя.")
		return
	}

	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Ваше имя изменено на: %s", name))
}

func (h *Handlers) handleEditCity(ctx context.Context, msg *tgbotapi.Message) {
	city := strings.TrimSpace(msg.Text)

	tz, ok := timezone.Resolve(city)
	if !ok {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Не удалось определить часовой пояс для города '%s'.\nПопробуйте еще раз:", city))
		return
	}

	if err := h.repos.User.UpdateCity(ctx, msg.From.ID, city, tz); err != nil {
		logrus.WithError(err).Errorf("Failed to update city for user %d", msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Ошибка: не удалось изменить город.")
		return
	}

	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Ваш город и часовой пояс обновлены:\nГород: %s\nЧасовой пояс: %s", city, tz))
}

func (h *Handlers) handleUserInfo(ctx context.Context, msg *tgbotapi.Message) {
	if !h.isAdmin(msg.From.ID) {
		h.sendMessage(msg.Chat.ID, "Эта команда доступна только администратору.")
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		h.sendMessage(msg.Chat.ID, "Использование: /user_info <username>")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	user, err := h.repos.User.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Пользователь @%s не найден.", username))
		return
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to look up user @%s", username)
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"Пользователь:\nUsername: %s\nTelegram ID: %d\nИмя: %s\nГород: %s\nЧасовой пояс: %s",
		user.Username, user.TelegramID, user.Name, user.City, user.Timezone))
}
