package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
	"github.com/BaiBeiCha/smart-planner-bot/internal/timezone"
)

var patternLabels = map[string]string{
	models.PatternDaily:   "Ежедневно",
	models.PatternWeekly:  "Еженедельно",
	models.PatternMonthly: "Ежемесячно",
}

func patternLabel(pattern string) string {
	if label, ok := patternLabels[pattern]; ok {
		return label
	}
	return pattern
}

// composeMessage renders the notification text. The due time is
// converted to the recipient's timezone for display only; weather
// enrichment is best-effort and its failure just drops that section.
func (s *Scheduler) composeMessage(ctx context.Context, reminder *models.Reminder, user *models.User) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🔔 *Напоминание: %s*\n\n", reminder.Title))
	if reminder.Description != "" {
		sb.WriteString(reminder.Description + "\n\n")
	}

	if local, err := timezone.ToLocal(reminder.RemindAt, reminder.Timezone); err == nil {
		sb.WriteString(fmt.Sprintf("Время: %s (%s)\n", local.Format("02.01.2006 15:04"), reminder.Timezone))
	} else {
		sb.WriteString(fmt.Sprintf("Время: %s (UTC)\n", reminder.RemindAt.Format("02.01.2006 15:04")))
	}

	if s.weather != nil && user.City != "" {
		if current, err := s.weather.CurrentWeather(ctx, user.City); err != nil {
			logrus.WithError(err).Warnf("Weather lookup failed for city %s", user.City)
		} else {
			sb.WriteString(fmt.Sprintf("\n🌤️ Погода в %s: \n", user.City))
			sb.WriteString(fmt.Sprintf("🌡️ %.1f°C\n", current.Temperature))
			sb.WriteString(fmt.Sprintf("☁️ %s\n", current.Description))

			if rec, err := s.weather.Recommendation(ctx, user.City); err == nil && rec != "" {
				sb.WriteString(fmt.Sprintf("\n💡 %s", rec))
			}
		}
	}

	if reminder.IsRecurring {
		sb.WriteString(fmt.Sprintf("\n\n🔄 Повтор: %s", patternLabel(reminder.RecurringPattern)))
	}

	return sb.String()
}
