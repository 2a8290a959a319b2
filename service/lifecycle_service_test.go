package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ffarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tournamentAt(status models.TournamentStatus, start time.Time, end *time.Time) *models.Tournament {
	return &models.Tournament{
		ID:        "t1",
		Name:      "Friday Night Clash",
		Mode:      models.TournamentModeSquad,
		Type:      models.TournamentTypePerKill,
		MaxSlots:  48,
		Status:    status,
		StartTime: start,
		EndTime:   end,
	}
}

func TestCheckTournamentState(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("upcoming before start time stays put", func(t *testing.T) {
		tournament := tournamentAt(models.TournamentStatusUpcoming, future, nil)
		next, due := CheckTournamentState(tournament, now)
		assert.False(t, due)
		assert.Equal(t, models.TournamentStatusUpcoming, next)
	})

	t.Run("upcoming past start time goes ongoing", func(t *testing.T) {
		tournament := tournamentAt(models.TournamentStatusUpcoming, past, nil)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusOngoing, next)
	})

	t.Run("start exactly now goes ongoing", func(t *testing.T) {
		tournament := tournamentAt(models.TournamentStatusUpcoming, now, nil)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusOngoing, next)
	})

	t.Run("end time takes precedence over start time", func(t *testing.T) {
		// Both start and end have passed; a single check jumps straight
		// to completed, never stopping at ongoing.
		end := now.Add(-time.Minute)
		tournament := tournamentAt(models.TournamentStatusUpcoming, past, &end)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusCompleted, next)
	})

	t.Run("ongoing past end time goes completed", func(t *testing.T) {
		end := now.Add(-time.Second)
		tournament := tournamentAt(models.TournamentStatusOngoing, past, &end)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusCompleted, next)
	})

	t.Run("ongoing without end time never completes on its own", func(t *testing.T) {
		tournament := tournamentAt(models.TournamentStatusOngoing, past, nil)
		next, due := CheckTournamentState(tournament, now)
		assert.False(t, due)
		assert.Equal(t, models.TournamentStatusOngoing, next)
	})

	t.Run("completed within payout buffer stays put", func(t *testing.T) {
		end := now.Add(-59 * time.Second)
		tournament := tournamentAt(models.TournamentStatusCompleted, past, &end)
		next, due := CheckTournamentState(tournament, now)
		assert.False(t, due)
		assert.Equal(t, models.TournamentStatusCompleted, next)
	})

	t.Run("completed exactly at payout buffer goes awaiting payout", func(t *testing.T) {
		end := now.Add(-60 * time.Second)
		tournament := tournamentAt(models.TournamentStatusCompleted, past, &end)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusAwaitingPayout, next)
	})

	t.Run("completed past payout buffer goes awaiting payout", func(t *testing.T) {
		end := now.Add(-61 * time.Second)
		tournament := tournamentAt(models.TournamentStatusCompleted, past, &end)
		next, due := CheckTournamentState(tournament, now)
		assert.True(t, due)
		assert.Equal(t, models.TournamentStatusAwaitingPayout, next)
	})

	t.Run("terminal statuses never transition", func(t *testing.T) {
		end := now.Add(-time.Hour)
		for _, status := range []models.TournamentStatus{
			models.TournamentStatusAwaitingPayout,
			models.TournamentStatusPaid,
			models.TournamentStatusCancelled,
			models.TournamentStatusDeleted,
		} {
			tournament := tournamentAt(status, past, &end)
			_, due := CheckTournamentState(tournament, now)
			assert.False(t, due, "status %s should not transition", status)
		}
	})
}

func newLifecycleServiceForTest(factory UnitOfWorkFactory, now time.Time) *lifecycleService {
	return &lifecycleService{
		uowFactory: factory,
		now:        func() time.Time { return now },
	}
}

func TestLifecycleService_UpdateTournamentStates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("mixed batch counts each transition kind", func(t *testing.T) {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockTournamentRepo := new(MockTournamentRepository)
		mockUoW.SetRepositories(mockTournamentRepo, nil, nil, nil, nil)

		endPassed := now.Add(-time.Minute)
		endLongPassed := now.Add(-2 * time.Minute)

		starting := tournamentAt(models.TournamentStatusUpcoming, past, nil)
		starting.ID = "t-start"
		finishing := tournamentAt(models.TournamentStatusOngoing, past, &endPassed)
		finishing.ID = "t-finish"
		payable := tournamentAt(models.TournamentStatusCompleted, past, &endLongPassed)
		payable.ID = "t-pay"
		idle := tournamentAt(models.TournamentStatusUpcoming, future, nil)
		idle.ID = "t-idle"

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUoW.On("Commit").Return(nil)

		mockTournamentRepo.On("ListActive", ctx).
			Return([]*models.Tournament{starting, finishing, payable, idle}, nil)
		mockTournamentRepo.On("UpdateStatus", ctx, "t-start", models.TournamentStatusUpcoming, models.TournamentStatusOngoing).
			Return(true, nil)
		mockTournamentRepo.On("UpdateStatus", ctx, "t-finish", models.TournamentStatusOngoing, models.TournamentStatusCompleted).
			Return(true, nil)
		mockTournamentRepo.On("UpdateStatus", ctx, "t-pay", models.TournamentStatusCompleted, models.TournamentStatusAwaitingPayout).
			Return(true, nil)

		svc := newLifecycleServiceForTest(mockFactory, now)
		result, err := svc.UpdateTournamentStates(ctx)

		require.NoError(t, err)
		assert.Equal(t, 3, result.Updated)
		assert.Equal(t, 1, result.StartedCount)
		assert.Equal(t, 1, result.CompletedCount)
		assert.Equal(t, 1, result.AwaitingPayoutCount)
		mockTournamentRepo.AssertExpectations(t)
	})

	t.Run("one failed update does not sink the batch", func(t *testing.T) {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockTournamentRepo := new(MockTournamentRepository)
		mockUoW.SetRepositories(mockTournamentRepo, nil, nil, nil, nil)

		broken := tournamentAt(models.TournamentStatusUpcoming, past, nil)
		broken.ID = "t-broken"
		fine := tournamentAt(models.TournamentStatusUpcoming, past, nil)
		fine.ID = "t-fine"

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)
		mockUoW.On("Commit").Return(nil)

		mockTournamentRepo.On("ListActive", ctx).
			Return([]*models.Tournament{broken, fine}, nil)
		mockTournamentRepo.On("UpdateStatus", ctx, "t-broken", models.TournamentStatusUpcoming, models.TournamentStatusOngoing).
			Return(false, errors.New("connection reset"))
		mockTournamentRepo.On("UpdateStatus", ctx, "t-fine", models.TournamentStatusUpcoming, models.TournamentStatusOngoing).
			Return(true, nil)

		svc := newLifecycleServiceForTest(mockFactory, now)
		result, err := svc.UpdateTournamentStates(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, 1, result.StartedCount)
	})

	t.Run("transition already applied elsewhere is not counted", func(t *testing.T) {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockTournamentRepo := new(MockTournamentRepository)
		mockUoW.SetRepositories(mockTournamentRepo, nil, nil, nil, nil)

		raced := tournamentAt(models.TournamentStatusUpcoming, past, nil)
		raced.ID = "t-raced"

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockTournamentRepo.On("ListActive", ctx).
			Return([]*models.Tournament{raced}, nil)
		mockTournamentRepo.On("UpdateStatus", ctx, "t-raced", models.TournamentStatusUpcoming, models.TournamentStatusOngoing).
			Return(false, nil)

		svc := newLifecycleServiceForTest(mockFactory, now)
		result, err := svc.UpdateTournamentStates(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, result.Updated)
		mockUoW.AssertNotCalled(t, "Commit")
	})

	t.Run("nothing due means empty result", func(t *testing.T) {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockTournamentRepo := new(MockTournamentRepository)
		mockUoW.SetRepositories(mockTournamentRepo, nil, nil, nil, nil)

		idle := tournamentAt(models.TournamentStatusUpcoming, future, nil)

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockTournamentRepo.On("ListActive", ctx).
			Return([]*models.Tournament{idle}, nil)

		svc := newLifecycleServiceForTest(mockFactory, now)
		result, err := svc.UpdateTournamentStates(ctx)

		require.NoError(t, err)
		assert.Equal(t, &models.LifecycleResult{}, result)
	})

	t.Run("listing failure surfaces", func(t *testing.T) {
		mockUoW := new(MockUnitOfWork)
		mockFactory := new(MockUnitOfWorkFactory)
		mockTournamentRepo := new(MockTournamentRepository)
		mockUoW.SetRepositories(mockTournamentRepo, nil, nil, nil, nil)

		mockFactory.On("Create").Return(mockUoW)
		mockUoW.On("Begin", ctx).Return(nil)
		mockUoW.On("Rollback").Return(nil)

		mockTournamentRepo.On("ListActive", ctx).
			Return(nil, errors.New("connection reset"))

		svc := newLifecycleServiceForTest(mockFactory, now)
		result, err := svc.UpdateTournamentStates(ctx)

		assert.Error(t, err)
		assert.Nil(t, result)
	})
}
