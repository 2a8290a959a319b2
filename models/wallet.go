package models

import (
	"time"
)

// Wallet represents a user's diamond balance. One wallet per user.
type Wallet struct {
	UserID         string    `db:"user_id"`
	UserName       string    `db:"user_name"`
	UserEmail      string    `db:"user_email"`
	Balance        int64     `db:"balance"`
	TotalDeposited int64     `db:"total_deposited"`
	TotalWithdrawn int64     `db:"total_withdrawn"`
	TotalEarnings  int64     `db:"total_earnings"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
