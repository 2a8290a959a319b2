package service

import (
	"context"
	"fmt"

	"ffarena/events"
	"ffarena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory) WalletService {
	return &walletService{
		uowFactory: uowFactory,
	}
}

func (s *walletService) GetOrCreateWallet(ctx context.Context, userID, userName, userEmail string) (*models.Wallet, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = &models.Wallet{
		UserID:    userID,
		UserName:  userName,
		UserEmail: userEmail,
	}
	if err := uow.WalletRepository().Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userId", userID).Info("Created wallet")
	return wallet, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

func (s *walletService) Deposit(ctx context.Context, userID string, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	var wallet *models.Wallet
	err := retryOnConflict(ctx, "deposit", func() error {
		var err error
		wallet, err = s.depositTx(ctx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) depositTx(ctx context.Context, userID string, amount int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	newBalance, err := uow.WalletRepository().Deposit(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}

	txn := &models.WalletTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        models.TransactionTypeDeposit,
		Amount:      amount,
		Description: fmt.Sprintf("Deposit of %d", amount),
	}
	if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record deposit transaction: %w", err)
	}

	uow.EventBus().Publish(events.WalletCreditedEvent{
		UserID:          userID,
		Amount:          amount,
		NewBalance:      newBalance,
		TransactionType: models.TransactionTypeDeposit,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	wallet.Balance = newBalance
	wallet.TotalDeposited += amount
	return wallet, nil
}

func (s *walletService) Withdraw(ctx context.Context, userID string, amount int64) (*models.Wallet, error) {
	if amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	var wallet *models.Wallet
	err := retryOnConflict(ctx, "withdraw", func() error {
		var err error
		wallet, err = s.withdrawTx(ctx, userID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *walletService) withdrawTx(ctx context.Context, userID string, amount int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	if wallet.Balance < amount {
		return nil, &InsufficientBalanceError{
			Balance:  wallet.Balance,
			Required: amount,
		}
	}

	newBalance, err := uow.WalletRepository().Withdraw(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to withdraw: %w", err)
	}

	txn := &models.WalletTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        models.TransactionTypeWithdraw,
		Amount:      -amount,
		Description: fmt.Sprintf("Withdrawal of %d", amount),
	}
	if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal transaction: %w", err)
	}

	uow.EventBus().Publish(events.WalletDebitedEvent{
		UserID:          userID,
		Amount:          amount,
		NewBalance:      newBalance,
		TransactionType: models.TransactionTypeWithdraw,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	wallet.Balance = newBalance
	wallet.TotalWithdrawn += amount
	return wallet, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}

	return uow.WalletTransactionRepository().ListByUser(ctx, userID, limit)
}
