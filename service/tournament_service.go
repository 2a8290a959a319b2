package service

import (
	"context"
	"fmt"

	"ffarena/events"
	"ffarena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type tournamentService struct {
	uowFactory UnitOfWorkFactory
}

// NewTournamentService creates a new tournament service
func NewTournamentService(uowFactory UnitOfWorkFactory) TournamentService {
	return &tournamentService{
		uowFactory: uowFactory,
	}
}

func validateCreateTournamentInput(input CreateTournamentInput) error {
	if input.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if input.MaxSlots <= 0 {
		return &ValidationError{Field: "maxSlots", Message: "must be positive"}
	}
	if input.EntryFee < 0 {
		return &ValidationError{Field: "entryFee", Message: "must not be negative"}
	}
	if input.PrizePool < 0 {
		return &ValidationError{Field: "prizePool", Message: "must not be negative"}
	}
	if input.StartTime.IsZero() {
		return &ValidationError{Field: "startTime", Message: "must be set"}
	}
	if input.EndTime != nil && !input.EndTime.After(input.StartTime) {
		return &ValidationError{Field: "endTime", Message: "must be after startTime"}
	}
	switch input.Mode {
	case models.TournamentModeSolo, models.TournamentModeDuo, models.TournamentModeSquad, models.TournamentModeClashSquad:
	default:
		return &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", input.Mode)}
	}
	switch input.Type {
	case models.TournamentTypePerKill, models.TournamentTypeSurvival, models.TournamentTypeTopKill:
	default:
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown type %q", input.Type)}
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateCreateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Description:  input.Description,
		Mode:         input.Mode,
		Type:         input.Type,
		EntryFee:     input.EntryFee,
		PrizePool:    input.PrizePool,
		MaxSlots:     input.MaxSlots,
		Status:       models.TournamentStatusUpcoming,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		RoomID:       input.RoomID,
		RoomPassword: input.RoomPassword,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TournamentRepository().Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"tournamentId": tournament.ID,
		"name":         tournament.Name,
		"startTime":    tournament.StartTime,
	}).Info("Created tournament")

	return tournament, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, t *models.Tournament) error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Message: "must not be empty"}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.TournamentRepository().GetByIDForUpdate(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}
	if existing == nil || existing.Status == models.TournamentStatusDeleted {
		return ErrTournamentNotFound
	}
	if t.MaxSlots < existing.RegisteredSlots {
		return &ValidationError{Field: "maxSlots", Message: "cannot go below registered slot count"}
	}

	if err := uow.TournamentRepository().Update(ctx, t); err != nil {
		return fmt.Errorf("failed to update tournament: %w", err)
	}

	return uow.Commit()
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament, err := uow.TournamentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return nil, ErrTournamentNotFound
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.TournamentRepository().List(ctx)
}

// CancelTournament cancels a tournament and refunds every paid entry fee.
// Refunds and the status change commit together.
func (s *tournamentService) CancelTournament(ctx context.Context, id string) error {
	return retryOnConflict(ctx, "cancel tournament", func() error {
		return s.cancelTournamentTx(ctx, id)
	})
}

func (s *tournamentService) cancelTournamentTx(ctx context.Context, id string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament, err := uow.TournamentRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return ErrTournamentNotFound
	}
	if !models.CanTransitionTo(tournament.Status, models.TournamentStatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tournament.Status, models.TournamentStatusCancelled)
	}

	regs, err := uow.RegistrationRepository().ListByTournament(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list registrations: %w", err)
	}

	for _, reg := range regs {
		if reg.EntryFeePaid <= 0 {
			continue
		}

		newBalance, err := uow.WalletRepository().Refund(ctx, reg.UserID, reg.EntryFeePaid)
		if err != nil {
			return fmt.Errorf("failed to refund user %s: %w", reg.UserID, err)
		}

		txn := &models.WalletTransaction{
			ID:             uuid.NewString(),
			UserID:         reg.UserID,
			Type:           models.TransactionTypeRefund,
			Amount:         reg.EntryFeePaid,
			TournamentID:   &tournament.ID,
			TournamentName: &tournament.Name,
			Description:    fmt.Sprintf("Refund for cancelled tournament %s", tournament.Name),
		}
		if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
			return fmt.Errorf("failed to record refund for user %s: %w", reg.UserID, err)
		}

		uow.EventBus().Publish(events.WalletCreditedEvent{
			UserID:          reg.UserID,
			Amount:          reg.EntryFeePaid,
			NewBalance:      newBalance,
			TransactionType: models.TransactionTypeRefund,
			TournamentID:    tournament.ID,
		})
	}

	applied, err := uow.TournamentRepository().UpdateStatus(ctx, id, tournament.Status, models.TournamentStatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel tournament: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: tournament %s changed status concurrently", ErrInvalidTransition, id)
	}

	uow.EventBus().Publish(events.TournamentStatusChangedEvent{
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		OldStatus:      tournament.Status,
		NewStatus:      models.TournamentStatusCancelled,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"tournamentId": id,
		"refunds":      len(regs),
	}).Info("Cancelled tournament")

	return nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament, err := uow.TournamentRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil || tournament.Status == models.TournamentStatusDeleted {
		return ErrTournamentNotFound
	}

	if err := uow.TournamentRepository().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("tournamentId", id).Info("Soft-deleted tournament")
	return nil
}

// RecordResults stores final standings and pays out prizes in one
// transaction, then moves the tournament from awaiting_payout to paid.
func (s *tournamentService) RecordResults(ctx context.Context, tournamentID string, results []PlayerResult) error {
	if len(results) == 0 {
		return &ValidationError{Field: "results", Message: "must not be empty"}
	}

	return retryOnConflict(ctx, "record results", func() error {
		return s.recordResultsTx(ctx, tournamentID, results)
	})
}

func (s *tournamentService) recordResultsTx(ctx context.Context, tournamentID string, results []PlayerResult) error {
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
	if tournament.Status != models.TournamentStatusAwaitingPayout {
		return fmt.Errorf("%w: results require awaiting_payout, tournament is %s", ErrInvalidTransition, tournament.Status)
	}

	for _, result := range results {
		reg, err := uow.RegistrationRepository().GetByUserAndTournament(ctx, result.UserID, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to get registration for user %s: %w", result.UserID, err)
		}
		if reg == nil {
			return fmt.Errorf("%w: user %s in tournament %s", ErrRegistrationNotFound, result.UserID, tournamentID)
		}

		if err := uow.RegistrationRepository().RecordResult(ctx, reg.ID, result.Position, result.Kills, result.PrizeWon); err != nil {
			return fmt.Errorf("failed to record result for user %s: %w", result.UserID, err)
		}

		if result.PrizeWon <= 0 {
			continue
		}

		newBalance, err := uow.WalletRepository().CreditPrize(ctx, result.UserID, result.PrizeWon)
		if err != nil {
			return fmt.Errorf("failed to credit prize to user %s: %w", result.UserID, err)
		}

		txn := &models.WalletTransaction{
			ID:             uuid.NewString(),
			UserID:         result.UserID,
			Type:           models.TransactionTypePrizePayout,
			Amount:         result.PrizeWon,
			TournamentID:   &tournament.ID,
			TournamentName: &tournament.Name,
			Description:    fmt.Sprintf("Prize for %s", tournament.Name),
		}
		if err := uow.WalletTransactionRepository().Record(ctx, txn); err != nil {
			return fmt.Errorf("failed to record prize payout for user %s: %w", result.UserID, err)
		}

		uow.EventBus().Publish(events.WalletCreditedEvent{
			UserID:          result.UserID,
			Amount:          result.PrizeWon,
			NewBalance:      newBalance,
			TransactionType: models.TransactionTypePrizePayout,
			TournamentID:    tournament.ID,
		})
	}

	applied, err := uow.TournamentRepository().UpdateStatus(ctx, tournamentID, models.TournamentStatusAwaitingPayout, models.TournamentStatusPaid)
	if err != nil {
		return fmt.Errorf("failed to mark tournament paid: %w", err)
	}
	if !applied {
		return fmt.Errorf("%w: tournament %s changed status concurrently", ErrInvalidTransition, tournamentID)
	}

	uow.EventBus().Publish(events.TournamentStatusChangedEvent{
		TournamentID:   tournament.ID,
		TournamentName: tournament.Name,
		OldStatus:      models.TournamentStatusAwaitingPayout,
		NewStatus:      models.TournamentStatusPaid,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"tournamentId": tournamentID,
		"results":      len(results),
	}).Info("Recorded tournament results and paid out prizes")

	return nil
}
