package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/BaiBeiCha/smart-planner-bot/internal/database"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (telegram_id, username, name, city, timezone)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, is_active`,
		user.TelegramID, user.Username, user.Name, user.City, user.Timezone,
	).Scan(&user.ID, &user.CreatedAt, &user.IsActive)
}

func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, telegram_id, username, name, city, timezone, created_at, is_active
		 FROM users WHERE telegram_id = $1`,
		telegramID,
	).Scan(&user.ID, &user.TelegramID, &user.Username, &user.Name, &user.City, &user.Timezone,
		&user.CreatedAt, &user.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, telegram_id, username, name, city, timezone, created_at, is_active
		 FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.TelegramID, &user.Username, &user.Name, &user.City, &user.Timezone,
		&user.CreatedAt, &user.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, telegramID int64, name string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET name = $1 WHERE telegram_id = $2`,
		name, telegramID,
	)
	return err
}

func (r *UserRepository) UpdateCity(ctx context.Context, telegramID int64, city, timezone string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET city = $1, timezone = $2 WHERE telegram_id = $3`,
		city, timezone, telegramID,
	)
	return err
}
