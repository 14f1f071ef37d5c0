package models

import "time"

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	Timezone   string    `json:"timezone"` // IANA name, display only
	CreatedAt  time.Time `json:"created_at"`
	IsActive   bool      `json:"is_active"`
}
