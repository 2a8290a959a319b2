package service

import (
	"context"
	"testing"
	"time"

	"ffarena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type tournamentMocks struct {
	factory        *MockUnitOfWorkFactory
	uow            *MockUnitOfWork
	tournamentRepo *MockTournamentRepository
	walletRepo     *MockWalletRepository
	walletTxnRepo  *MockWalletTransactionRepository
	regRepo        *MockRegistrationRepository
}

func newTournamentMocks(ctx context.Context) tournamentMocks {
	m := tournamentMocks{
		factory:        new(MockUnitOfWorkFactory),
		uow:            new(MockUnitOfWork),
		tournamentRepo: new(MockTournamentRepository),
		walletRepo:     new(MockWalletRepository),
		walletTxnRepo:  new(MockWalletTransactionRepository),
		regRepo:        new(MockRegistrationRepository),
	}
	m.uow.SetRepositories(m.tournamentRepo, m.walletRepo, m.walletTxnRepo, m.regRepo, nil)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:      "Weekend Squad Showdown",
		Mode:      models.TournamentModeSquad,
		Type:      models.TournamentTypePerKill,
		EntryFee:  50,
		PrizePool: 2000,
		MaxSlots:  48,
		StartTime: time.Now().Add(24 * time.Hour),
	}
}

func TestTournamentService_CreateTournament(t *testing.T) {
	ctx := context.Background()

	t.Run("success starts upcoming with empty slots", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		m.tournamentRepo.On("Create", ctx, mock.MatchedBy(func(created *models.Tournament) bool {
			return created.Status == models.TournamentStatusUpcoming &&
				created.RegisteredSlots == 0 &&
				created.ID != ""
		})).Return(nil)
		m.uow.On("Commit").Return(nil)

		svc := NewTournamentService(m.factory)
		tournament, err := svc.CreateTournament(ctx, validCreateInput())

		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusUpcoming, tournament.Status)
		m.tournamentRepo.AssertExpectations(t)
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := map[string]func(*CreateTournamentInput){
			"empty name":          func(in *CreateTournamentInput) { in.Name = "" },
			"zero slots":          func(in *CreateTournamentInput) { in.MaxSlots = 0 },
			"negative fee":        func(in *CreateTournamentInput) { in.EntryFee = -1 },
			"unknown mode":        func(in *CreateTournamentInput) { in.Mode = "trio" },
			"unknown type":        func(in *CreateTournamentInput) { in.Type = "headshot-only" },
			"end before start":    func(in *CreateTournamentInput) { end := in.StartTime.Add(-time.Hour); in.EndTime = &end },
			"missing start time":  func(in *CreateTournamentInput) { in.StartTime = time.Time{} },
			"negative prize pool": func(in *CreateTournamentInput) { in.PrizePool = -5 },
		}

		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				m := newTournamentMocks(ctx)
				input := validCreateInput()
				mutate(&input)

				svc := NewTournamentService(m.factory)
				_, err := svc.CreateTournament(ctx, input)

				var validationErr *ValidationError
				assert.ErrorAs(t, err, &validationErr)
				m.factory.AssertNotCalled(t, "Create")
			})
		}
	})
}

func TestTournamentService_CancelTournament(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds every paid registration", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		tournament := upcomingTournament()
		regs := []*models.Registration{
			{ID: "reg-1", UserID: "user-1", TournamentID: "tour-1", EntryFeePaid: 50},
			{ID: "reg-2", UserID: "user-2", TournamentID: "tour-1", EntryFeePaid: 50},
			{ID: "reg-3", UserID: "user-3", TournamentID: "tour-1", EntryFeePaid: 0},
		}

		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(tournament, nil)
		m.regRepo.On("ListByTournament", ctx, "tour-1").Return(regs, nil)
		m.walletRepo.On("Refund", ctx, "user-1", int64(50)).Return(int64(100), nil)
		m.walletRepo.On("Refund", ctx, "user-2", int64(50)).Return(int64(75), nil)
		m.walletTxnRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.WalletTransaction) bool {
			return txn.Type == models.TransactionTypeRefund && txn.Amount == 50
		})).Return(nil).Times(2)
		m.tournamentRepo.On("UpdateStatus", ctx, "tour-1", models.TournamentStatusUpcoming, models.TournamentStatusCancelled).
			Return(true, nil)
		m.uow.On("Commit").Return(nil)

		svc := NewTournamentService(m.factory)
		err := svc.CancelTournament(ctx, "tour-1")

		require.NoError(t, err)
		// Free registrations get no refund entry
		m.walletRepo.AssertNotCalled(t, "Refund", ctx, "user-3", mock.Anything)
		m.walletRepo.AssertExpectations(t)
		m.walletTxnRepo.AssertExpectations(t)
	})

	t.Run("paid tournaments cannot be cancelled", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		tournament := upcomingTournament()
		tournament.Status = models.TournamentStatusPaid
		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(tournament, nil)

		svc := NewTournamentService(m.factory)
		err := svc.CancelTournament(ctx, "tour-1")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTournamentService_RecordResults(t *testing.T) {
	ctx := context.Background()

	awaitingTournament := func() *models.Tournament {
		tournament := upcomingTournament()
		tournament.Status = models.TournamentStatusAwaitingPayout
		return tournament
	}

	t.Run("pays winners and marks tournament paid", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(awaitingTournament(), nil)
		m.regRepo.On("GetByUserAndTournament", ctx, "user-1", "tour-1").
			Return(&models.Registration{ID: "reg-1", UserID: "user-1", TournamentID: "tour-1"}, nil)
		m.regRepo.On("GetByUserAndTournament", ctx, "user-2", "tour-1").
			Return(&models.Registration{ID: "reg-2", UserID: "user-2", TournamentID: "tour-1"}, nil)
		m.regRepo.On("RecordResult", ctx, "reg-1", 1, 12, int64(1000)).Return(nil)
		m.regRepo.On("RecordResult", ctx, "reg-2", 7, 3, int64(0)).Return(nil)
		m.walletRepo.On("CreditPrize", ctx, "user-1", int64(1000)).Return(int64(1100), nil)
		m.walletTxnRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.WalletTransaction) bool {
			return txn.Type == models.TransactionTypePrizePayout && txn.Amount == 1000
		})).Return(nil)
		m.tournamentRepo.On("UpdateStatus", ctx, "tour-1", models.TournamentStatusAwaitingPayout, models.TournamentStatusPaid).
			Return(true, nil)
		m.uow.On("Commit").Return(nil)

		svc := NewTournamentService(m.factory)
		err := svc.RecordResults(ctx, "tour-1", []PlayerResult{
			{UserID: "user-1", Position: 1, Kills: 12, PrizeWon: 1000},
			{UserID: "user-2", Position: 7, Kills: 3, PrizeWon: 0},
		})

		require.NoError(t, err)
		// No payout for prizeless players
		m.walletRepo.AssertNotCalled(t, "CreditPrize", ctx, "user-2", mock.Anything)
		m.tournamentRepo.AssertExpectations(t)
	})

	t.Run("requires awaiting_payout", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(upcomingTournament(), nil)

		svc := NewTournamentService(m.factory)
		err := svc.RecordResults(ctx, "tour-1", []PlayerResult{{UserID: "user-1", Position: 1}})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("unknown player fails the whole batch", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(awaitingTournament(), nil)
		m.regRepo.On("GetByUserAndTournament", ctx, "ghost", "tour-1").Return(nil, nil)

		svc := NewTournamentService(m.factory)
		err := svc.RecordResults(ctx, "tour-1", []PlayerResult{{UserID: "ghost", Position: 1}})

		assert.ErrorIs(t, err, ErrRegistrationNotFound)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("empty results rejected", func(t *testing.T) {
		m := newTournamentMocks(ctx)

		svc := NewTournamentService(m.factory)
		err := svc.RecordResults(ctx, "tour-1", nil)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		m.factory.AssertNotCalled(t, "Create")
	})
}

func TestTournamentService_UpdateTournament(t *testing.T) {
	ctx := context.Background()

	t.Run("cannot shrink below registered players", func(t *testing.T) {
		m := newTournamentMocks(ctx)
		existing := upcomingTournament()
		existing.RegisteredSlots = 20
		m.tournamentRepo.On("GetByIDForUpdate", ctx, "tour-1").Return(existing, nil)

		updated := upcomingTournament()
		updated.MaxSlots = 10

		svc := NewTournamentService(m.factory)
		err := svc.UpdateTournament(ctx, updated)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
		m.tournamentRepo.AssertNotCalled(t, "Update")
	})
}
