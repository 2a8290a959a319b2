package service

import (
	"context"
	"fmt"
	"time"

	"ffarena/database"
	"ffarena/events"
	"ffarena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Write transactions that lose a race with a concurrent signup are retried a
// few times from a fresh snapshot before giving up.
const (
	maxTxAttempts  = 3
	txRetryBackoff = 50 * time.Millisecond
)

type registrationService struct {
	uowFactory UnitOfWorkFactory
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(uowFactory UnitOfWorkFactory) RegistrationService {
	return &registrationService{
		uowFactory: uowFactory,
	}
}

// retryOnConflict runs fn, retrying with backoff when the transaction was
// aborted by a serialization failure or deadlock. Any other error is
// returned as-is; exhausting the attempts yields ErrUnavailable.
func retryOnConflict(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if err == nil || !database.IsRetryable(err) {
			return err
		}

		log.WithFields(log.Fields{
			"operation": op,
			"attempt":   attempt,
		}).Warn("Transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(txRetryBackoff):
		}
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrUnavailable, op, maxTxAttempts, err)
}

func (s *registrationService) RegisterPlayer(ctx context.Context, input RegisterPlayerInput) (*models.Registration, error) {
	if input.UserID == "" {
		return nil, &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if input.TournamentID == "" {
		return nil, &ValidationError{Field: "tournamentId", Message: "must not be empty"}
	}

	var reg *models.Registration
	err := retryOnConflict(ctx, "register player", func() error {
		var err error
		reg, err = s.registerPlayerTx(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// registerPlayerTx performs one attempt at the signup transaction: lock the
// tournament row, lock the wallet row, charge the fee, write the ledger
// entry and the registration, and take the slot. Everything commits or
// nothing does.
func (s *registrationService) registerPlayerTx(ctx context.Context, input RegisterPlayerInput) (*models.Registration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	tournament, err := uow.TournamentRepository().GetByIDForUpdate(ctx, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return nil, ErrTournamentNotFound
	}
	if !tournament.AcceptingRegistrations() {
		return nil, ErrRegistrationClosed
	}

	// Duplicate check comes before the capacity check so a player who
	// already holds a slot in a full tournament gets the right answer.
	existing, err := uow.RegistrationRepository().GetByUserAndTournament(ctx, input.UserID, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	if tournament.IsFull() {
		return nil, ErrTournamentFull
	}

	// Free tournaments never touch the wallet, so a player without one can
	// still join.
	if tournament.EntryFee > 0 {
		wallet, err := uow.WalletRepository().GetByUserIDForUpdate(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet: %w", err)
		}
		if wallet == nil {
			return nil, ErrWalletNotFound
		}

		if wallet.Balance < tournament.EntryFee {
			return nil, &InsufficientBalanceError{
				Balance:  wallet.Balance,
				Required: tournament.EntryFee,
			}
		}

		newBalance, err := uow.WalletRepository().Debit(ctx, input.UserID, tournament.EntryFee)
		if err != nil {
			return nil, fmt.Errorf("failed to charge entry fee: %w", err)
		}

		txn := &models.WalletTransaction{
			ID:             uuid.NewString(),
			UserID:         input.UserID,
			Type:           models.TransactionTypeTournamentEntry,
			Amount:         -tournament.EntryFee,
			TournamentID:   &tournament.ID,
			TournamentName: &tournament.Name,
			Description:    fmt.Sprintf("Entry fee for %s", tournament.Name),
		}
		if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to record entry fee transaction: %w", err)
		}

		uow.EventBus().Publish(events.WalletDebitedEvent{
			UserID:          input.UserID,
			Amount:          tournament.EntryFee,
			NewBalance:      newBalance,
			TransactionType: models.TransactionTypeTournamentEntry,
			TournamentID:    tournament.ID,
		})
	}

	slotNumber := tournament.RegisteredSlots + 1
	reg := &models.Registration{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		UserName:     input.UserName,
		UserEmail:    input.UserEmail,
		TournamentID: input.TournamentID,
		TeamName:     input.TeamName,
		EntryFeePaid: tournament.EntryFee,
		SlotNumber:   &slotNumber,
	}
	if err := uow.RegistrationRepository().Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	taken, err := uow.TournamentRepository().IncrementRegisteredSlots(ctx, input.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve slot: %w", err)
	}
	if !taken {
		return nil, ErrTournamentFull
	}

	uow.EventBus().Publish(events.PlayerRegisteredEvent{
		RegistrationID: reg.ID,
		UserID:         input.UserID,
		UserName:       input.UserName,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		EntryFeePaid:   tournament.EntryFee,
		SlotsTaken:     slotNumber,
		MaxSlots:       tournament.MaxSlots,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":       input.UserID,
		"tournamentId": tournament.ID,
		"entryFee":     tournament.EntryFee,
		"slot":         slotNumber,
	}).Info("Player registered for tournament")

	return reg, nil
}

// UnregisterPlayer releases a player's slot while the tournament has not yet
// started. The entry fee is not refunded.
func (s *registrationService) UnregisterPlayer(ctx context.Context, userID, tournamentID string) error {
	if userID == "" {
		return &ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if tournamentID == "" {
		return &ValidationError{Field: "tournamentId", Message: "must not be empty"}
	}

	return retryOnConflict(ctx, "unregister player", func() error {
		return s.unregisterPlayerTx(ctx, userID, tournamentID)
	})
}

func (s *registrationService) unregisterPlayerTx(ctx context.Context, userID, tournamentID string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament, err := uow.TournamentRepository().GetByIDForUpdate(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return ErrTournamentNotFound
	}
	if tournament.Status != models.TournamentStatusUpcoming {
		return ErrRegistrationClosed
	}

	reg, err := uow.RegistrationRepository().GetByUserAndTournament(ctx, userID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return ErrRegistrationNotFound
	}

	if err := uow.RegistrationRepository().Delete(ctx, reg.ID); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	if err := uow.TournamentRepository().DecrementRegisteredSlots(ctx, tournamentID); err != nil {
		return fmt.Errorf("failed to release slot: %w", err)
	}

	uow.EventBus().Publish(events.PlayerUnregisteredEvent{
		RegistrationID: reg.ID,
		UserID:         userID,
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userId":       userID,
		"tournamentId": tournamentID,
	}).Info("Player unregistered from tournament")

	return nil
}

func (s *registrationService) GetRegistration(ctx context.Context, userID, tournamentID string) (*models.Registration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reg, err := uow.RegistrationRepository().GetByUserAndTournament(ctx, userID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if reg == nil {
		return nil, ErrRegistrationNotFound
	}
	return reg, nil
}

func (s *registrationService) ListTournamentRegistrations(ctx context.Context, tournamentID string) ([]*models.Registration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament, err := uow.TournamentRepository().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return nil, ErrTournamentNotFound
	}

	return uow.RegistrationRepository().ListByTournament(ctx, tournamentID)
}

func (s *registrationService) ListUserRegistrations(ctx context.Context, userID string) ([]*models.Registration, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.RegistrationRepository().ListByUser(ctx, userID)
}
