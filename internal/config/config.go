package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// How often the scheduler polls for due reminders.
	ReminderCheckInterval = 60 * time.Second
	// How long a cached weather snapshot stays valid.
	WeatherCacheTTL = time.Hour

	DefaultTimezone = "Europe/Minsk"

	WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
)

type Config struct {
	DatabaseURL       string
	TelegramToken     string
	OpenWeatherAPIKey string
	AdminUserID       int64
	AIAPIKey          string
	AIBaseURL         string
	AIModel           string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	adminID, _ := strconv.ParseInt(os.Getenv("ADMIN_USER_ID"), 10, 64)

	return &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		AdminUserID:       adminID,
		AIAPIKey:          os.Getenv("AI_API_KEY"),
		AIBaseURL:         getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:           getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
