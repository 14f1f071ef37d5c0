package models

import "time"

// Recurrence patterns. Offsets are fixed durations: monthly is a
// 30-day approximation, not calendar-month arithmetic.
const (
	PatternDaily   = "daily"
	PatternWeekly  = "weekly"
	PatternMonthly = "monthly"
)

type Reminder struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"` // recipient telegram id
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	RemindAt         time.Time `json:"remind_at"` // UTC, all due-time comparisons use this
	Timezone         string    `json:"timezone"`  // recipient timezone, display only
	IsRecurring      bool      `json:"is_recurring"`
	RecurringPattern string    `json:"recurring_pattern"`
	IsSent           bool      `json:"is_sent"`
	CreatedAt        time.Time `json:"created_at"`
}
