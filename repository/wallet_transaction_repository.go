package repository

import (
	"context"
	"fmt"

	"ffarena/database"
	"ffarena/models"
)

// WalletTransactionRepository implements the WalletTransactionRepository interface
type WalletTransactionRepository struct {
	q queryable
}

// NewWalletTransactionRepository creates a new wallet transaction repository
func NewWalletTransactionRepository(db *database.DB) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: db.Pool}
}

// newWalletTransactionRepositoryWithTx creates a new wallet transaction repository with a transaction
func newWalletTransactionRepositoryWithTx(tx queryable) *WalletTransactionRepository {
	return &WalletTransactionRepository{q: tx}
}

// Record appends a transaction to the ledger. Ledger rows are never updated
// or deleted.
func (r *WalletTransactionRepository) Record(ctx context.Context, txn *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, type, amount, tournament_id, tournament_name, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.ID, txn.UserID, txn.Type, txn.Amount,
		txn.TournamentID, txn.TournamentName, txn.Description,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wallet transaction for user %s: %w", txn.UserID, err)
	}
	return nil
}

// ListByUser returns a user's transactions, newest first, up to limit.
// A limit of zero or below returns everything.
func (r *WalletTransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	query := `
		SELECT id, user_id, type, amount, tournament_id, tournament_name, description, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var txns []*models.WalletTransaction
	for rows.Next() {
		var txn models.WalletTransaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Type,
			&txn.Amount,
			&txn.TournamentID,
			&txn.TournamentName,
			&txn.Description,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}
	return txns, nil
}
