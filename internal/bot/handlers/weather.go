package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handlers) handleWeather(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	record, err := h.weather.CurrentWeather(ctx, user.City)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to fetch weather for city %q", user.City)
		h.sendMessage(msg.Chat.ID, fmt.Sprintf(
			"Не удалось получить погоду для города '%s'.\nПроверьте название города в вашем профиле (/profile).", user.City))
		return
	}

	text := fmt.Sprintf(
		"🌤️ Погода в городе %s:\n\n🌡️ Температура: %.1f°C\n☁️ Состояние: %s\n💧 Влажность: %d%%\n💨 Ветер: %.1f м/с",
		record.City, record.Temperature, record.Description, record.Humidity, record.WindSpeed)

	if rec, err := h.weather.Recommendation(ctx, user.City); err == nil && rec != "" {
		text += "\n\n💡 " + rec
	}

	h.sendMessage(msg.Chat.ID, text)
}
