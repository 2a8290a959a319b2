package repository

import (
	"context"
	"testing"
	"time"

	"ffarena/events"
	"ffarena/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_RollbackLeavesNoTrace(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	eventBus := events.NewBus()
	factory := NewUnitOfWorkFactory(testDB.DB, eventBus)
	ctx := context.Background()

	tournament := testutil.CreateTestTournament("Phantom Cup")

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.TournamentRepository().Create(ctx, tournament))

	wallet := testutil.CreateTestWallet("rollback-user", 100)
	require.NoError(t, uow.WalletRepository().Create(ctx, wallet))

	require.NoError(t, uow.Rollback())

	// Nothing from the transaction is visible outside it
	found, err := NewTournamentRepository(testDB.DB).GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	foundWallet, err := NewWalletRepository(testDB.DB).GetByUserID(ctx, "rollback-user")
	require.NoError(t, err)
	assert.Nil(t, foundWallet)
}

func TestUnitOfWork_EventsFollowTheTransaction(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	eventBus := events.NewBus()
	received := make(chan events.Event, 1)
	eventBus.Subscribe(events.EventTypePlayerRegistered, func(_ context.Context, e events.Event) {
		received <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, eventBus)
	ctx := context.Background()

	t.Run("flushed after commit", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		tournament := testutil.CreateTestTournament("Event Cup")
		require.NoError(t, uow.TournamentRepository().Create(ctx, tournament))
		uow.EventBus().Publish(events.PlayerRegisteredEvent{
			UserID:       "event-user",
			TournamentID: tournament.ID,
		})

		require.NoError(t, uow.Commit())

		select {
		case e := <-received:
			assert.Equal(t, events.EventTypePlayerRegistered, e.Type())
		case <-time.After(2 * time.Second):
			t.Fatal("expected event after commit")
		}
	})

	t.Run("discarded after rollback", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.PlayerRegisteredEvent{UserID: "ghost"})
		require.NoError(t, uow.Rollback())

		select {
		case e := <-received:
			t.Fatalf("unexpected event after rollback: %v", e)
		case <-time.After(200 * time.Millisecond):
		}
	})
}

func TestUnitOfWork_DoubleBeginRejected(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	assert.Error(t, uow.Begin(ctx))
}
