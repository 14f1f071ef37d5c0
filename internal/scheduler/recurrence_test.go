package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

func recurring(pattern string, due time.Time) *models.Reminder {
	return &models.Reminder{
		ID:               7,
		UserID:           42,
		Title:            "title",
		Description:      "desc",
		RemindAt:         due,
		Timezone:         "Europe/Moscow",
		IsRecurring:      true,
		RecurringPattern: pattern,
	}
}

func TestNextOccurrenceOffsets(t *testing.T) {
	due := time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		pattern string
		offset  time.Duration
	}{
		{models.PatternDaily, 24 * time.Hour},
		{models.PatternWeekly, 7 * 24 * time.Hour},
		{models.PatternMonthly, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			next := nextOccurrence(recurring(tt.pattern, due))
			require.NotNil(t, next)
			assert.Equal(t, due.Add(tt.offset), next.RemindAt)
		})
	}
}

func TestNextOccurrenceCopiesFields(t *testing.T) {
	fired := recurring(models.PatternDaily, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	next := nextOccurrence(fired)

	require.NotNil(t, next)
	assert.Zero(t, next.ID, "successor is a fresh row")
	assert.Equal(t, fired.UserID, next.UserID)
	assert.Equal(t, fired.Title, next.Title)
	assert.Equal(t, fired.Description, next.Description)
	assert.Equal(t, fired.Timezone, next.Timezone)
	assert.Equal(t, fired.RecurringPattern, next.RecurringPattern)
	assert.True(t, next.IsRecurring)
	assert.False(t, next.IsSent)
}

func TestNextOccurrenceOneOff(t *testing.T) {
	r := recurring("", time.Now())
	r.IsRecurring = false
	r.RecurringPattern = ""
	assert.Nil(t, nextOccurrence(r))
}

func TestNextOccurrenceEmptyPattern(t *testing.T) {
	r := recurring("", time.Now())
	assert.Nil(t, nextOccurrence(r))
}

func TestNextOccurrenceUnknownPattern(t *testing.T) {
	assert.Nil(t, nextOccurrence(recurring("yearly", time.Now())))
}

func TestMonthlyIsFixedThirtyDays(t *testing.T) {
	// End of January: a calendar month would land on Feb 28, the fixed
	// offset lands on Mar 2.
	due := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	next := nextOccurrence(recurring(models.PatternMonthly, due))

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), next.RemindAt)
}
