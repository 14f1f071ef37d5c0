package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 12:00 UTC is 15:00 in Europe/Moscow (UTC+3, no DST).
var base = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseExactFormat(t *testing.T) {
	got, err := Parse("20.06.2025 18:30", "Europe/Moscow", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 20, 15, 30, 0, 0, time.UTC), got)
}

func TestParseRelative(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
	}{
		{"через 15 минут", base.Add(15 * time.Minute)},
		{"через 2 часа", base.Add(2 * time.Hour)},
		{"через 1 час", base.Add(time.Hour)},
		{"через 3 дня", base.Add(3 * 24 * time.Hour)},
		{"через 1 день", base.Add(24 * time.Hour)},
		{"in 10 minutes", base.Add(10 * time.Minute)},
		{"in 5 min", base.Add(5 * time.Minute)},
		{"in 2 hours", base.Add(2 * time.Hour)},
		{"in 1 day", base.Add(24 * time.Hour)},
		{"Через 20 минут", base.Add(20 * time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text, "Europe/Moscow", base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTomorrowAt(t *testing.T) {
	got, err := Parse("завтра в 18:00", "Europe/Moscow", base)
	require.NoError(t, err)
	// June 16, 18:00 MSK is 15:00 UTC.
	assert.Equal(t, time.Date(2025, 6, 16, 15, 0, 0, 0, time.UTC), got)

	got, err = Parse("tomorrow at 09:30", "Europe/Moscow", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 16, 6, 30, 0, 0, time.UTC), got)
}

func TestParseTodayAt(t *testing.T) {
	got, err := Parse("сегодня в 20:00", "Europe/Moscow", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 17, 0, 0, 0, time.UTC), got)
}

func TestParseBareClock(t *testing.T) {
	// Local time at base is 15:00. A later clock time stays today.
	got, err := Parse("17:45", "Europe/Moscow", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 14, 45, 0, 0, time.UTC), got)

	// An earlier clock time rolls over to tomorrow.
	got, err = Parse("10:00", "Europe/Moscow", base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 16, 7, 0, 0, 0, time.UTC), got)
}

func TestParseBareClockRolloverAcrossDST(t *testing.T) {
	// Berlin springs forward on 2025-03-30 at 02:00 CET. At 20:00 local
	// on the 29th, "08:00" already passed and must mean 08:00 tomorrow,
	// which is 06:00 UTC under CEST (a plain +24h would give 09:00).
	now := time.Date(2025, 3, 29, 19, 0, 0, 0, time.UTC) // 20:00 in Berlin

	got, err := Parse("08:00", "Europe/Berlin", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 30, 6, 0, 0, 0, time.UTC), got)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, 8, got.In(berlin).Hour())
}

func TestParseInvalidClockValues(t *testing.T) {
	_, err := Parse("завтра в 25:00", "Europe/Moscow", base)
	assert.ErrorIs(t, err, ErrUnrecognized)

	_, err = Parse("12:75", "Europe/Moscow", base)
	assert.ErrorIs(t, err, ErrUnrecognized)
}

func TestParseUnrecognized(t *testing.T) {
	for _, text := range []string{"когда-нибудь", "next blue moon", "", "через много минут"} {
		_, err := Parse(text, "Europe/Moscow", base)
		assert.ErrorIs(t, err, ErrUnrecognized, "text: %q", text)
	}
}

func TestParseBadTimezone(t *testing.T) {
	_, err := Parse("через 5 минут", "Mars/Olympus", base)
	assert.Error(t, err)
}

func TestParseReturnsUTC(t *testing.T) {
	got, err := Parse("завтра в 18:00", "Asia/Tokyo", base)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
}
