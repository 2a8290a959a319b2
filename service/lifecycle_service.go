package service

import (
	"context"
	"fmt"
	"time"

	"ffarena/events"
	"ffarena/models"

	log "github.com/sirupsen/logrus"
)

// PayoutBuffer is how long a tournament sits in completed before moving to
// awaiting_payout, giving match results time to land.
const PayoutBuffer = 60 * time.Second

// CheckTournamentState computes the next status a tournament is due for at
// the given instant. It applies at most one step per call; a tournament whose
// start and end have both passed reaches awaiting_payout over successive
// sweeps. Returns false when no transition is due.
func CheckTournamentState(t *models.Tournament, now time.Time) (models.TournamentStatus, bool) {
	switch t.Status {
	case models.TournamentStatusCompleted:
		if t.EndTime != nil && !now.Before(t.EndTime.Add(PayoutBuffer)) {
			return models.TournamentStatusAwaitingPayout, true
		}
	case models.TournamentStatusUpcoming, models.TournamentStatusOngoing:
		if t.EndTime != nil && !now.Before(*t.EndTime) {
			return models.TournamentStatusCompleted, true
		}
		if t.Status == models.TournamentStatusUpcoming && !now.Before(t.StartTime) {
			return models.TournamentStatusOngoing, true
		}
	}
	return t.Status, false
}

type lifecycleService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(uowFactory UnitOfWorkFactory) LifecycleService {
	return &lifecycleService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// UpdateTournamentStates sweeps every active tournament and applies whatever
// transition it is due for. Each tournament is updated in its own
// transaction; one failure is logged and skipped so the rest of the batch
// still goes through. Counts cover successful updates only.
func (s *lifecycleService) UpdateTournamentStates(ctx context.Context) (*models.LifecycleResult, error) {
	candidates, err := s.listActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tournaments: %w", err)
	}

	now := s.now()
	result := &models.LifecycleResult{}

	for _, t := range candidates {
		next, due := CheckTournamentState(t, now)
		if !due {
			continue
		}

		applied, err := s.transitionTx(ctx, t.ID, t.Status, next, t.Name)
		if err != nil {
			log.WithFields(log.Fields{
				"tournamentId": t.ID,
				"from":         t.Status,
				"to":           next,
			}).WithError(err).Error("Failed to update tournament state, will retry next sweep")
			continue
		}
		if !applied {
			// Another sweep got there first
			continue
		}

		result.Updated++
		switch next {
		case models.TournamentStatusOngoing:
			result.StartedCount++
		case models.TournamentStatusCompleted:
			result.CompletedCount++
		case models.TournamentStatusAwaitingPayout:
			result.AwaitingPayoutCount++
		}
	}

	if result.Updated > 0 {
		log.WithFields(log.Fields{
			"updated":        result.Updated,
			"started":        result.StartedCount,
			"completed":      result.CompletedCount,
			"awaitingPayout": result.AwaitingPayoutCount,
		}).Info("Tournament lifecycle sweep applied transitions")
	}

	return result, nil
}

func (s *lifecycleService) listActive(ctx context.Context) ([]*models.Tournament, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.TournamentRepository().ListActive(ctx)
}

// transitionTx applies a single status transition in its own transaction.
// The update is guarded by the expected current status, so a transition that
// already happened elsewhere reports applied=false rather than clobbering it.
func (s *lifecycleService) transitionTx(ctx context.Context, id string, from, to models.TournamentStatus, name string) (bool, error) {
	if !models.CanTransitionTo(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	applied, err := uow.TournamentRepository().UpdateStatus(ctx, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	if !applied {
		return false, uow.Rollback()
	}

	uow.EventBus().Publish(events.TournamentStatusChangedEvent{
		TournamentID:   id,
		TournamentName: name,
		OldStatus:      from,
		NewStatus:      to,
		OccurredAt:     s.now(),
	})

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
