// Package dateparse turns user-entered due times into UTC instants.
// It understands the exact ДД.ММ.ГГГГ ЧЧ:ММ format plus a small set of
// Russian and English relative expressions; anything it cannot handle
// is left to the optional AI resolver.
package dateparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognized means the text matched none of the supported forms.
var ErrUnrecognized = errors.New("dateparse: unrecognized time expression")

const exactLayout = "02.01.2006 15:04"

var (
	relativeRe = regexp.MustCompile(`^(?:через|in)\s+(\d+)\s*(мин[а-я]*|час[а-я]*|ч|день|дн[а-я]*|minutes?|mins?|m|hours?|h|days?|d)\.?$`)
	dayAtRe    = regexp.MustCompile(`^(завтра|сегодня|tomorrow|today)(?:\s+(?:в|at)\s+(\d{1,2}):(\d{2}))?$`)
	clockRe    = regexp.MustCompile(`^(?:в\s+|at\s+)?(\d{1,2}):(\d{2})$`)
)

// Parse interprets text as a local time in the given IANA timezone and
// returns the corresponding UTC instant. now supplies the relative
// base and must already be in UTC.
func Parse(text, tz string, now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}

	trimmed := strings.TrimSpace(text)
	localNow := now.In(loc)

	if t, err := time.ParseInLocation(exactLayout, trimmed, loc); err == nil {
		return t.UTC(), nil
	}

	lower := strings.ToLower(trimmed)

	if m := relativeRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, ErrUnrecognized
		}
		unit, ok := unitDuration(m[2])
		if !ok {
			return time.Time{}, ErrUnrecognized
		}
		return now.Add(time.Duration(n) * unit).UTC(), nil
	}

	if m := dayAtRe.FindStringSubmatch(lower); m != nil {
		day := localNow
		if m[1] == "завтра" || m[1] == "tomorrow" {
			day = day.AddDate(0, 0, 1)
		}

		hour, minute := day.Hour(), day.Minute()
		if m[2] != "" {
			hour, _ = strconv.Atoi(m[2])
			minute, _ = strconv.Atoi(m[3])
			if hour > 23 || minute > 59 {
				return time.Time{}, ErrUnrecognized
			}
		}

		result := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
		return result.UTC(), nil
	}

	if m := clockRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, ErrUnrecognized
		}

		// Bare clock time means today, or tomorrow if it already passed.
		// Rebuilt in the location rather than shifted by 24h so the
		// wall-clock time survives a DST transition.
		result := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hour, minute, 0, 0, loc)
		if !result.After(localNow) {
			result = time.Date(localNow.Year(), localNow.Month(), localNow.Day()+1, hour, minute, 0, 0, loc)
		}
		return result.UTC(), nil
	}

	return time.Time{}, ErrUnrecognized
}

func unitDuration(unit string) (time.Duration, bool) {
	switch {
	case strings.HasPrefix(unit, "мин"), strings.HasPrefix(unit, "min"), unit == "m":
		return time.Minute, true
	case strings.HasPrefix(unit, "час"), strings.HasPrefix(unit, "hour"), unit == "ч", unit == "h":
		return time.Hour, true
	case strings.HasPrefix(unit, "дн"), unit == "день", strings.HasPrefix(unit, "day"), unit == "d":
		return 24 * time.Hour, true
	}
	return 0, false
}
