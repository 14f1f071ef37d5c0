package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BaiBeiCha/smart-planner-bot/internal/database"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		reminder.UserID, reminder.Title, reminder.Description, reminder.RemindAt.UTC(), reminder.Timezone,
		reminder.IsRecurring, reminder.RecurringPattern, reminder.IsSent,
	).Scan(&reminder.ID, &reminder.CreatedAt)
}

// CreateBatch inserts one reminder per recipient in a single transaction.
// Used for group fan-out so a partial failure never leaves a subset of
// members with the reminder.
func (r *ReminderRepository) CreateBatch(ctx context.Context, reminders []*models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, reminder := range reminders {
		err := tx.QueryRow(ctx,
			`INSERT INTO reminders (user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			reminder.UserID, reminder.Title, reminder.Description, reminder.RemindAt.UTC(), reminder.Timezone,
			reminder.IsRecurring, reminder.RecurringPattern, reminder.IsSent,
		).Scan(&reminder.ID, &reminder.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID int64) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent, created_at
		 FROM reminders WHERE id = $1`,
		reminderID,
	).Scan(&reminder.ID, &reminder.UserID, &reminder.Title, &reminder.Description, &reminder.RemindAt,
		&reminder.Timezone, &reminder.IsRecurring, &reminder.RecurringPattern, &reminder.IsSent, &reminder.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

// GetPendingByUserID returns the user's unsent reminders, soonest first.
func (r *ReminderRepository) GetPendingByUserID(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent, created_at
		 FROM reminders WHERE user_id = $1 AND is_sent = FALSE
		 ORDER BY remind_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// GetDue returns every unsent reminder whose due time is at or before now.
func (r *ReminderRepository) GetDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent, created_at
		 FROM reminders WHERE is_sent = FALSE AND remind_at <= $1
		 ORDER BY remind_at ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// FinishOccurrence marks the fired reminder as sent and, when next is
// not nil, inserts the successor occurrence. Both happen in one
// transaction so a crash can never separate them.
func (r *ReminderRepository) FinishOccurrence(ctx context.Context, fired *models.Reminder, next *models.Reminder) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if next != nil {
		err := tx.QueryRow(ctx,
			`INSERT INTO reminders (user_id, title, description, remind_at, timezone, is_recurring, recurring_pattern, is_sent)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
			 RETURNING id, created_at`,
			next.UserID, next.Title, next.Description, next.RemindAt.UTC(), next.Timezone,
			next.IsRecurring, next.RecurringPattern,
		).Scan(&next.ID, &next.CreatedAt)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE reminders SET is_sent = TRUE WHERE id = $1`,
		fired.ID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Delete removes a reminder by id. It reports whether a row was
// actually deleted; a missing row is not an error.
func (r *ReminderRepository) Delete(ctx context.Context, reminderID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE id = $1`,
		reminderID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := rows.Scan(&reminder.ID, &reminder.UserID, &reminder.Title, &reminder.Description,
			&reminder.RemindAt, &reminder.Timezone, &reminder.IsRecurring, &reminder.RecurringPattern,
			&reminder.IsSent, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
