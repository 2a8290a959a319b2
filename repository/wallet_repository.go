package repository

import (
	"context"
	"fmt"

	"ffarena/database"
	"ffarena/models"

	"github.com/jackc/pgx/v5"
)

const walletColumns = `
	user_id, user_name, user_email, balance, total_deposited,
	total_withdrawn, total_earnings, created_at, updated_at
`

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(
		&w.UserID,
		&w.UserName,
		&w.UserEmail,
		&w.Balance,
		&w.TotalDeposited,
		&w.TotalWithdrawn,
		&w.TotalEarnings,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByUserID retrieves a wallet by user ID. Returns nil if not found.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	w, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return w, nil
}

// GetByUserIDForUpdate retrieves a wallet with a row lock, blocking concurrent
// writers until the enclosing transaction ends. Returns nil if not found.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`

	w, err := scanWallet(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet for user %s: %w", userID, err)
	}
	return w, nil
}

// Create inserts a new wallet
func (r *WalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, user_name, user_email, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query, w.UserID, w.UserName, w.UserEmail, w.Balance).
		Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet for user %s: %w", w.UserID, err)
	}
	return nil
}

// Debit deducts an entry fee or similar charge from a wallet, failing if the
// balance would go negative. Returns the new balance.
func (r *WalletRepository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE wallets
		SET balance = balance - $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("insufficient balance or missing wallet for user %s", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet for user %s: %w", userID, err)
	}
	return newBalance, nil
}

// Deposit adds funds to a wallet and bumps its lifetime deposit counter.
// Returns the new balance.
func (r *WalletRepository) Deposit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE wallets
		SET balance = balance + $1, total_deposited = total_deposited + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("wallet for user %s not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deposit into wallet for user %s: %w", userID, err)
	}
	return newBalance, nil
}

// Withdraw removes funds from a wallet and bumps its lifetime withdrawal
// counter, failing if the balance would go negative. Returns the new balance.
func (r *WalletRepository) Withdraw(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE wallets
		SET balance = balance - $1, total_withdrawn = total_withdrawn + $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("insufficient balance or missing wallet for user %s", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to withdraw from wallet for user %s: %w", userID, err)
	}
	return newBalance, nil
}

// Refund returns a previously charged amount to a wallet. Unlike Deposit it
// leaves the lifetime counters untouched. Returns the new balance.
func (r *WalletRepository) Refund(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE wallets
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("wallet for user %s not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to refund wallet for user %s: %w", userID, err)
	}
	return newBalance, nil
}

// CreditPrize adds tournament winnings to a wallet and bumps its lifetime
// earnings counter. Returns the new balance.
func (r *WalletRepository) CreditPrize(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE wallets
		SET balance = balance + $1, total_earnings = total_earnings + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("wallet for user %s not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit prize to wallet for user %s: %w", userID, err)
	}
	return newBalance, nil
}
