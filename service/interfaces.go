package service

import (
	"context"
	"time"

	"ffarena/events"
	"ffarena/models"
)

// TournamentRepository defines the interface for tournament data access
type TournamentRepository interface {
	// GetByID retrieves a tournament by its ID, nil if not found
	GetByID(ctx context.Context, id string) (*models.Tournament, error)

	// GetByIDForUpdate retrieves a tournament with a row lock held until the
	// enclosing transaction ends, nil if not found
	GetByIDForUpdate(ctx context.Context, id string) (*models.Tournament, error)

	// Create inserts a new tournament
	Create(ctx context.Context, t *models.Tournament) error

	// Update overwrites the mutable fields of a tournament
	Update(ctx context.Context, t *models.Tournament) error

	// UpdateStatus transitions a tournament between statuses, guarded by the
	// expected current status. Returns whether the transition was applied.
	UpdateStatus(ctx context.Context, id string, from, to models.TournamentStatus) (bool, error)

	// IncrementRegisteredSlots takes one slot, returning false when full
	IncrementRegisteredSlots(ctx context.Context, id string) (bool, error)

	// DecrementRegisteredSlots releases one slot, never going below zero
	DecrementRegisteredSlots(ctx context.Context, id string) error

	// ListActive returns tournaments the lifecycle sweep still cares about
	ListActive(ctx context.Context) ([]*models.Tournament, error)

	// ListByStatus returns tournaments in the given status
	ListByStatus(ctx context.Context, status models.TournamentStatus) ([]*models.Tournament, error)

	// List returns all tournaments except soft-deleted ones
	List(ctx context.Context) ([]*models.Tournament, error)

	// SoftDelete marks a tournament as deleted without removing its rows
	SoftDelete(ctx context.Context, id string) error
}

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByUserID retrieves a wallet by user ID, nil if not found
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)

	// GetByUserIDForUpdate retrieves a wallet with a row lock held until the
	// enclosing transaction ends, nil if not found
	GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Wallet, error)

	// Create inserts a new wallet
	Create(ctx context.Context, w *models.Wallet) error

	// Debit deducts a charge, failing if the balance would go negative.
	// Returns the new balance.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)

	// Deposit adds funds and bumps the lifetime deposit counter
	Deposit(ctx context.Context, userID string, amount int64) (int64, error)

	// Withdraw removes funds and bumps the lifetime withdrawal counter,
	// failing if the balance would go negative
	Withdraw(ctx context.Context, userID string, amount int64) (int64, error)

	// Refund returns a previously charged amount without touching the
	// lifetime counters
	Refund(ctx context.Context, userID string, amount int64) (int64, error)

	// CreditPrize adds winnings and bumps the lifetime earnings counter
	CreditPrize(ctx context.Context, userID string, amount int64) (int64, error)
}

// WalletTransactionRepository defines the interface for the transaction ledger
type WalletTransactionRepository interface {
	// Record appends a transaction to the ledger
	Record(ctx context.Context, txn *models.WalletTransaction) error

	// ListByUser returns a user's transactions, newest first, up to limit
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error)
}

// RegistrationRepository defines the interface for registration data access
type RegistrationRepository interface {
	// Create inserts a new registration
	Create(ctx context.Context, reg *models.Registration) error

	// GetByID retrieves a registration by its ID, nil if not found
	GetByID(ctx context.Context, id string) (*models.Registration, error)

	// GetByUserAndTournament retrieves a user's registration in a tournament,
	// nil if the user is not registered
	GetByUserAndTournament(ctx context.Context, userID, tournamentID string) (*models.Registration, error)

	// ListByTournament returns all registrations in a tournament, in signup order
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Registration, error)

	// ListByUser returns all of a user's registrations, newest first
	ListByUser(ctx context.Context, userID string) ([]*models.Registration, error)

	// Delete removes a registration
	Delete(ctx context.Context, id string) error

	// RecordResult stores a player's final placement, kills, and winnings
	RecordResult(ctx context.Context, id string, position, kills int, prizeWon int64) error
}

// RegistrationService defines the interface for tournament signup operations
type RegistrationService interface {
	// RegisterPlayer reserves a slot, charges the entry fee, records the
	// ledger entry, and creates the registration as one atomic operation
	RegisterPlayer(ctx context.Context, input RegisterPlayerInput) (*models.Registration, error)

	// UnregisterPlayer releases a player's slot. The entry fee is not refunded.
	UnregisterPlayer(ctx context.Context, userID, tournamentID string) error

	// GetRegistration retrieves a user's registration in a tournament
	GetRegistration(ctx context.Context, userID, tournamentID string) (*models.Registration, error)

	// ListTournamentRegistrations returns all registrations in a tournament
	ListTournamentRegistrations(ctx context.Context, tournamentID string) ([]*models.Registration, error)

	// ListUserRegistrations returns all of a user's registrations
	ListUserRegistrations(ctx context.Context, userID string) ([]*models.Registration, error)
}

// RegisterPlayerInput carries the details of a signup request
type RegisterPlayerInput struct {
	UserID       string
	UserName     string
	UserEmail    string
	TournamentID string
	TeamName     *string
}

// LifecycleService defines the interface for tournament state progression
type LifecycleService interface {
	// UpdateTournamentStates advances every active tournament that is due
	// for a transition and reports what changed
	UpdateTournamentStates(ctx context.Context) (*models.LifecycleResult, error)
}

// WalletService defines the interface for wallet operations
type WalletService interface {
	// GetOrCreateWallet retrieves an existing wallet or creates an empty one
	GetOrCreateWallet(ctx context.Context, userID, userName, userEmail string) (*models.Wallet, error)

	// GetWallet retrieves a wallet by user ID
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// Deposit adds funds to a wallet and records the ledger entry
	Deposit(ctx context.Context, userID string, amount int64) (*models.Wallet, error)

	// Withdraw removes funds from a wallet and records the ledger entry
	Withdraw(ctx context.Context, userID string, amount int64) (*models.Wallet, error)

	// ListTransactions returns a user's ledger entries, newest first
	ListTransactions(ctx context.Context, userID string, limit int) ([]*models.WalletTransaction, error)
}

// TournamentService defines the interface for tournament administration
type TournamentService interface {
	// CreateTournament creates a new tournament accepting registrations
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)

	// UpdateTournament overwrites the mutable fields of a tournament
	UpdateTournament(ctx context.Context, t *models.Tournament) error

	// GetTournament retrieves a tournament by ID
	GetTournament(ctx context.Context, id string) (*models.Tournament, error)

	// ListTournaments returns all tournaments except soft-deleted ones
	ListTournaments(ctx context.Context) ([]*models.Tournament, error)

	// CancelTournament cancels a tournament and refunds every entry fee
	CancelTournament(ctx context.Context, id string) error

	// DeleteTournament soft-deletes a tournament
	DeleteTournament(ctx context.Context, id string) error

	// RecordResults stores final standings and pays out prizes, moving the
	// tournament from awaiting_payout to paid
	RecordResults(ctx context.Context, tournamentID string, results []PlayerResult) error
}

// CreateTournamentInput carries the details of a new tournament
type CreateTournamentInput struct {
	Name         string
	Description  string
	Mode         models.TournamentMode
	Type         models.TournamentType
	EntryFee     int64
	PrizePool    int64
	MaxSlots     int
	StartTime    time.Time
	EndTime      *time.Time
	RoomID       *string
	RoomPassword *string
}

// PlayerResult carries one player's final standing in a tournament
type PlayerResult struct {
	UserID   string
	Position int
	Kills    int
	PrizeWon int64
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	TournamentRepository() TournamentRepository
	WalletRepository() WalletRepository
	WalletTransactionRepository() WalletTransactionRepository
	RegistrationRepository() RegistrationRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
