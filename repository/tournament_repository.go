package repository

import (
	"context"
	"fmt"

	"ffarena/database"
	"ffarena/models"

	"github.com/jackc/pgx/v5"
)

const tournamentColumns = `
	id, name, description, mode, type, entry_fee, prize_pool,
	max_slots, registered_slots, status, start_time, end_time,
	room_id, room_password, created_at, updated_at
`

// TournamentRepository implements the TournamentRepository interface
type TournamentRepository struct {
	q queryable
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *database.DB) *TournamentRepository {
	return &TournamentRepository{q: db.Pool}
}

// newTournamentRepositoryWithTx creates a new tournament repository with a transaction
func newTournamentRepositoryWithTx(tx queryable) *TournamentRepository {
	return &TournamentRepository{q: tx}
}

func scanTournament(row pgx.Row) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Mode,
		&t.Type,
		&t.EntryFee,
		&t.PrizePool,
		&t.MaxSlots,
		&t.RegisteredSlots,
		&t.Status,
		&t.StartTime,
		&t.EndTime,
		&t.RoomID,
		&t.RoomPassword,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID retrieves a tournament by its ID. Returns nil if not found.
func (r *TournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

// GetByIDForUpdate retrieves a tournament by its ID with a row lock,
// blocking concurrent writers until the enclosing transaction ends.
// Returns nil if not found.
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`

	t, err := scanTournament(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament %s: %w", id, err)
	}
	return t, nil
}

// Create inserts a new tournament
func (r *TournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, name, description, mode, type, entry_fee, prize_pool,
			max_slots, registered_slots, status, start_time, end_time,
			room_id, room_password
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		t.ID, t.Name, t.Description, t.Mode, t.Type, t.EntryFee, t.PrizePool,
		t.MaxSlots, t.RegisteredSlots, t.Status, t.StartTime, t.EndTime,
		t.RoomID, t.RoomPassword,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament %s: %w", t.ID, err)
	}
	return nil
}

// Update overwrites the mutable fields of a tournament
func (r *TournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET name = $2, description = $3, mode = $4, type = $5, entry_fee = $6,
		    prize_pool = $7, max_slots = $8, start_time = $9, end_time = $10,
		    room_id = $11, room_password = $12, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query,
		t.ID, t.Name, t.Description, t.Mode, t.Type, t.EntryFee,
		t.PrizePool, t.MaxSlots, t.StartTime, t.EndTime,
		t.RoomID, t.RoomPassword,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s: %w", t.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tournament %s not found", t.ID)
	}
	return nil
}

// UpdateStatus transitions a tournament from one status to another. The
// transition only applies if the tournament is still in the expected current
// status, so concurrent sweeps cannot double-apply it. Returns whether the
// transition was applied.
func (r *TournamentRepository) UpdateStatus(ctx context.Context, id string, from, to models.TournamentStatus) (bool, error) {
	query := `
		UPDATE tournaments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// IncrementRegisteredSlots takes one slot in the tournament. The update only
// applies while a free slot remains, so an over-subscribed increment reports
// false instead of corrupting the counter.
func (r *TournamentRepository) IncrementRegisteredSlots(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE tournaments
		SET registered_slots = registered_slots + 1, updated_at = NOW()
		WHERE id = $1 AND registered_slots < max_slots
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to increment slots for tournament %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// DecrementRegisteredSlots releases one slot in the tournament, never going
// below zero.
func (r *TournamentRepository) DecrementRegisteredSlots(ctx context.Context, id string) error {
	query := `
		UPDATE tournaments
		SET registered_slots = GREATEST(0, registered_slots - 1), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement slots for tournament %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tournament %s not found", id)
	}
	return nil
}

// ListActive returns tournaments that the lifecycle sweep still cares about:
// anything not yet awaiting payout, paid, cancelled, or deleted.
func (r *TournamentRepository) ListActive(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status IN ('upcoming', 'ongoing', 'completed')
		ORDER BY start_time
	`

	return r.listTournaments(ctx, query)
}

// ListByStatus returns tournaments in the given status, ordered by start time
func (r *TournamentRepository) ListByStatus(ctx context.Context, status models.TournamentStatus) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1
		ORDER BY start_time
	`

	return r.listTournaments(ctx, query, status)
}

// List returns all tournaments except soft-deleted ones, newest first
func (r *TournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status != 'deleted'
		ORDER BY created_at DESC
	`

	return r.listTournaments(ctx, query)
}

func (r *TournamentRepository) listTournaments(ctx context.Context, query string, args ...any) ([]*models.Tournament, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournaments: %w", err)
	}
	return tournaments, nil
}

// SoftDelete marks a tournament as deleted without removing its rows, so
// registrations and transaction history stay queryable
func (r *TournamentRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE tournaments
		SET status = 'deleted', updated_at = NOW()
		WHERE id = $1 AND status != 'deleted'
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete tournament %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tournament %s not found", id)
	}
	return nil
}
