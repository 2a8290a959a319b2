package testutil

import (
	"time"

	"ffarena/models"

	"github.com/google/uuid"
)

// CreateTestTournament creates an upcoming tournament with default values
func CreateTestTournament(name string) *models.Tournament {
	return &models.Tournament{
		ID:        uuid.NewString(),
		Name:      name,
		Mode:      models.TournamentModeSquad,
		Type:      models.TournamentTypePerKill,
		EntryFee:  50,
		PrizePool: 2000,
		MaxSlots:  48,
		Status:    models.TournamentStatusUpcoming,
		StartTime: time.Now().Add(2 * time.Hour),
	}
}

// CreateTestTournamentWithSlots creates a tournament with a specific capacity
func CreateTestTournamentWithSlots(name string, maxSlots int) *models.Tournament {
	t := CreateTestTournament(name)
	t.MaxSlots = maxSlots
	return t
}

// CreateTestWallet creates a wallet with the given balance
func CreateTestWallet(userID string, balance int64) *models.Wallet {
	return &models.Wallet{
		UserID:    userID,
		UserName:  "player-" + userID,
		UserEmail: userID + "@example.com",
		Balance:   balance,
	}
}

// CreateTestRegistration creates a registration tying a user to a tournament
func CreateTestRegistration(userID, tournamentID string, entryFeePaid int64) *models.Registration {
	return &models.Registration{
		ID:           uuid.NewString(),
		UserID:       userID,
		UserName:     "player-" + userID,
		UserEmail:    userID + "@example.com",
		TournamentID: tournamentID,
		EntryFeePaid: entryFeePaid,
	}
}
