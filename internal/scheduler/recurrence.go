package scheduler

import (
	"time"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

// Fixed recurrence offsets. Monthly is a 30-day approximation;
// calendar-month arithmetic is deliberately not applied.
var recurrenceOffsets = map[string]time.Duration{
	models.PatternDaily:   24 * time.Hour,
	models.PatternWeekly:  7 * 24 * time.Hour,
	models.PatternMonthly: 30 * 24 * time.Hour,
}

// nextOccurrence builds the successor row for a fired recurring
// reminder. The new due time is offset from the fired occurrence's
// scheduled time, not from wall clock, so late processing never
// shifts the chain. Returns nil for one-off reminders and for unknown
// patterns: the fired occurrence is then simply terminal.
func nextOccurrence(fired *models.Reminder) *models.Reminder {
	if !fired.IsRecurring || fired.RecurringPattern == "" {
		return nil
	}

	offset, ok := recurrenceOffsets[fired.RecurringPattern]
	if !ok {
		return nil
	}

	return &models.Reminder{
		UserID:           fired.UserID,
		Title:            fired.Title,
		Description:      fired.Description,
		RemindAt:         fired.RemindAt.Add(offset),
		Timezone:         fired.Timezone,
		IsRecurring:      true,
		RecurringPattern: fired.RecurringPattern,
		IsSent:           false,
	}
}
