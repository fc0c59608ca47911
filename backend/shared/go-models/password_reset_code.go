package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetCode for password_reset_codes table
type PasswordResetCode struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Email     string
	Code      string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

func (c *PasswordResetCode) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
