package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BaiBeiCha/smart-planner-bot/internal/database"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

type WeatherRepository struct {
	db *database.DB
}

func NewWeatherRepository(db *database.DB) *WeatherRepository {
	return &WeatherRepository{db: db}
}

func (r *WeatherRepository) GetLatest(ctx context.Context, city string) (*models.WeatherRecord, error) {
	record := &models.WeatherRecord{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, city, temperature, weather_condition, description, humidity, wind_speed, timestamp
		 FROM weather_data WHERE city = $1
		 ORDER BY timestamp DESC LIMIT 1`,
		city,
	).Scan(&record.ID, &record.City, &record.Temperature, &record.Condition, &record.Description,
		&record.Humidity, &record.WindSpeed, &record.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Replace drops any cached rows for the city and stores the fresh
// snapshot, so at most one row per city survives.
func (r *WeatherRepository) Replace(ctx context.Context, record *models.WeatherRecord) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM weather_data WHERE city = $1`,
		record.City,
	); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO weather_data (city, temperature, weather_condition, description, humidity, wind_speed, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		record.City, record.Temperature, record.Condition, record.Description,
		record.Humidity, record.WindSpeed, record.Timestamp.UTC(),
	).Scan(&record.ID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
