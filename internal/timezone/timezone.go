// Package timezone resolves home cities to IANA timezones and converts
// between canonical UTC storage and per-user display time.
package timezone

import (
	"strings"
	"time"

	"github.com/BaiBeiCha/smart-planner-bot/internal/config"
)

// cityZones maps normalized city names (Russian and English spellings)
// to IANA timezones. Users whose city is missing here can enter an
// IANA name directly.
var cityZones = map[string]string{
	"минск":            "Europe/Minsk",
	"minsk":            "Europe/Minsk",
	"гомель":           "Europe/Minsk",
	"брест":            "Europe/Minsk",
	"гродно":           "Europe/Minsk",
	"витебск":          "Europe/Minsk",
	"могилев":          "Europe/Minsk",
	"москва":           "Europe/Moscow",
	"moscow":           "Europe/Moscow",
	"санкт-петербург":  "Europe/Moscow",
	"питер":            "Europe/Moscow",
	"saint petersburg": "Europe/Moscow",
	"st petersburg":    "Europe/Moscow",
	"казань":           "Europe/Moscow",
	"нижний новгород":  "Europe/Moscow",
	"ростов-на-дону":   "Europe/Moscow",
	"волгоград":        "Europe/Volgograd",
	"самара":           "Europe/Samara",
	"екатеринбург":     "Asia/Yekaterinburg",
	"yekaterinburg":    "Asia/Yekaterinburg",
	"челябинск":        "Asia/Yekaterinburg",
	"пермь":            "Asia/Yekaterinburg",
	"омск":             "Asia/Omsk",
	"новосибирск":      "Asia/Novosibirsk",
	"novosibirsk":      "Asia/Novosibirsk",
	"красноярск":       "Asia/Krasnoyarsk",
	"иркутск":          "Asia/Irkutsk",
	"владивосток":      "Asia/Vladivostok",
	"киев":             "Europe/Kyiv",
	"kyiv":             "Europe/Kyiv",
	"kiev":             "Europe/Kyiv",
	"харьков":          "Europe/Kyiv",
	"одесса":           "Europe/Kyiv",
	"алматы":           "Asia/Almaty",
	"almaty":           "Asia/Almaty",
	"астана":           "Asia/Almaty",
	"ташкент":          "Asia/Tashkent",
	"tashkent":         "Asia/Tashkent",
	"тбилиси":          "Asia/Tbilisi",
	"ереван":           "Asia/Yerevan",
	"баку":             "Asia/Baku",
	"рига":             "Europe/Riga",
	"вильнюс":          "Europe/Vilnius",
	"таллин":           "Europe/Tallinn",
	"варшава":          "Europe/Warsaw",
	"warsaw":           "Europe/Warsaw",
	"берлин":           "Europe/Berlin",
	"berlin":           "Europe/Berlin",
	"прага":            "Europe/Prague",
	"лондон":           "Europe/London",
	"london":           "Europe/London",
	"париж":            "Europe/Paris",
	"paris":            "Europe/Paris",
	"стамбул":          "Europe/Istanbul",
	"istanbul":         "Europe/Istanbul",
	"дубай":            "Asia/Dubai",
	"dubai":            "Asia/Dubai",
	"нью-йорк":         "America/New_York",
	"new york":         "America/New_York",
}

// Resolve returns the IANA timezone for a city. Input that already is
// a valid IANA name (e.g. "Europe/Moscow") is accepted as-is.
func Resolve(city string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(city))
	normalized = strings.ReplaceAll(normalized, "ё", "е")

	if tz, ok := cityZones[normalized]; ok {
		return tz, true
	}

	if strings.Contains(city, "/") {
		if _, err := time.LoadLocation(strings.TrimSpace(city)); err == nil {
			return strings.TrimSpace(city), true
		}
	}

	return "", false
}

func Default() string {
	return config.DefaultTimezone
}

// ToLocal converts a canonical UTC instant to the named timezone for
// display.
func ToLocal(t time.Time, tz string) (time.Time, error) {
	if tz == "" {
		tz = Default()
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().In(loc), nil
}
