package models

import (
	"time"
)

// TransactionType represents the type of wallet balance change
type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeWithdraw        TransactionType = "withdraw"
	TransactionTypeTournamentEntry TransactionType = "tournament_entry"
	TransactionTypePrizePayout     TransactionType = "prize_payout"
	TransactionTypeRefund          TransactionType = "refund"
)

// WalletTransaction represents an append-only record of a wallet balance
// change. Amounts are signed relative to the balance direction: entry fees
// and withdrawals are negative, deposits and prize payouts positive.
type WalletTransaction struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	Type           TransactionType `db:"type"`
	Amount         int64           `db:"amount"`
	TournamentID   *string         `db:"tournament_id"`
	TournamentName *string         `db:"tournament_name"`
	Description    string          `db:"description"`
	CreatedAt      time.Time       `db:"created_at"`
}
