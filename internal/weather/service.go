// Package weather wraps the OpenWeather API with a database-backed
// cache and rule-based recommendations.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/config"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

// Cache stores one weather snapshot per city. A nil cache disables
// caching entirely.
type Cache interface {
	GetLatest(ctx context.Context, city string) (*models.WeatherRecord, error)
	Replace(ctx context.Context, record *models.WeatherRecord) error
}

type Service struct {
	apiKey   string
	baseURL  string
	cache    Cache
	cacheTTL time.Duration
	client   *http.Client
}

func New(apiKey string, cache Cache) *Service {
	return &Service{
		apiKey:   apiKey,
		baseURL:  config.WeatherAPIURL,
		cache:    cache,
		cacheTTL: config.WeatherCacheTTL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse mirrors the subset of the OpenWeather current-conditions
// payload this service uses.
type apiResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// CurrentWeather returns conditions for the city, served from the
// cache while the snapshot is fresh.
func (s *Service) CurrentWeather(ctx context.Context, city string) (*models.WeatherRecord, error) {
	if cached := s.cachedWeather(ctx, city); cached != nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "ru")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather api returned status %d for city %q", resp.StatusCode, city)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if len(data.Weather) == 0 {
		return nil, errors.New("weather response contains no conditions")
	}

	record := &models.WeatherRecord{
		City:        city,
		Temperature: data.Main.Temp,
		Condition:   strings.ToLower(data.Weather[0].Main),
		Description: data.Weather[0].Description,
		Humidity:    data.Main.Humidity,
		WindSpeed:   data.Wind.Speed,
		Timestamp:   time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Replace(ctx, record); err != nil {
			logrus.WithError(err).Warnf("Failed to cache weather for city %s", city)
		}
	}

	return record, nil
}

func (s *Service) cachedWeather(ctx context.Context, city string) *models.WeatherRecord {
	if s.cache == nil {
		return nil
	}

	record, err := s.cache.GetLatest(ctx, city)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		logrus.WithError(err).Warnf("Failed to read cached weather for city %s", city)
		return nil
	}

	if time.Since(record.Timestamp) >= s.cacheTTL {
		return nil
	}
	return record
}

// Recommendation returns a short clothing/activity hint for the city's
// current conditions and time of day.
func (s *Service) Recommendation(ctx context.Context, city string) (string, error) {
	current, err := s.CurrentWeather(ctx, city)
	if err != nil {
		return "", err
	}
	return recommendationFor(current.Temperature, current.Condition, TimeOfDay(time.Now().Hour())), nil
}

// TimeOfDay buckets an hour into morning/afternoon/evening/night.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func recommendationFor(temperature float64, condition, timeOfDay string) string {
	var hints []string

	switch {
	case temperature < -10:
		hints = append(hints, "Очень холодно! Одевайтесь очень тепло.")
	case temperature < 0:
		hints = append(hints, "Холодно! Не забудьте шапку и перчатки.")
	case temperature < 10:
		hints = append(hints, "Прохладно! Лучше взять куртку.")
	case temperature > 30:
		hints = append(hints, "Жарко! Пейте больше воды.")
	case temperature > 25:
		hints = append(hints, "Тепло! Отличная погода для прогулки.")
	}

	switch {
	case strings.Contains(condition, "rain") || strings.Contains(condition, "drizzle"):
		hints = append(hints, "Идет дождь! Возьмите зонт.")
	case strings.Contains(condition, "snow"):
		hints = append(hints, "Идет снег! Будьте осторожны на дороге.")
	case strings.Contains(condition, "clear") && timeOfDay == "morning":
		hints = append(hints, "Солнечное утро! Отличный день для активностей.")
	case strings.Contains(condition, "fog") || strings.Contains(condition, "mist"):
		hints = append(hints, "Туман! Будьте внимательны на дороге.")
	}

	if timeOfDay == "evening" && temperature < 15 {
		hints = append(hints, "Вечером похолодает! Возьмите теплую одежду.")
	}

	if len(hints) == 0 {
		return "Хорошего дня!"
	}
	return strings.Join(hints, " ")
}
