package repository

import (
	"context"
	"fmt"

	"ffarena/database"
	"ffarena/models"

	"github.com/jackc/pgx/v5"
)

const registrationColumns = `
	id, user_id, user_name, user_email, tournament_id, team_name,
	entry_fee_paid, slot_number, position, kills, prize_won, registration_time
`

// RegistrationRepository implements the RegistrationRepository interface
type RegistrationRepository struct {
	q queryable
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *database.DB) *RegistrationRepository {
	return &RegistrationRepository{q: db.Pool}
}

// newRegistrationRepositoryWithTx creates a new registration repository with a transaction
func newRegistrationRepositoryWithTx(tx queryable) *RegistrationRepository {
	return &RegistrationRepository{q: tx}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(
		&reg.ID,
		&reg.UserID,
		&reg.UserName,
		&reg.UserEmail,
		&reg.TournamentID,
		&reg.TeamName,
		&reg.EntryFeePaid,
		&reg.SlotNumber,
		&reg.Position,
		&reg.Kills,
		&reg.PrizeWon,
		&reg.RegistrationTime,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts a new registration
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (id, user_id, user_name, user_email, tournament_id, team_name, entry_fee_paid, slot_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING registration_time
	`

	err := r.q.QueryRow(ctx, query,
		reg.ID, reg.UserID, reg.UserName, reg.UserEmail,
		reg.TournamentID, reg.TeamName, reg.EntryFeePaid, reg.SlotNumber,
	).Scan(&reg.RegistrationTime)
	if err != nil {
		return fmt.Errorf("failed to create registration for user %s in tournament %s: %w", reg.UserID, reg.TournamentID, err)
	}
	return nil
}

// GetByID retrieves a registration by its ID. Returns nil if not found.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	reg, err := scanRegistration(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration %s: %w", id, err)
	}
	return reg, nil
}

// GetByUserAndTournament retrieves a user's registration in a tournament.
// Returns nil if the user is not registered.
func (r *RegistrationRepository) GetByUserAndTournament(ctx context.Context, userID, tournamentID string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 AND tournament_id = $2`

	reg, err := scanRegistration(r.q.QueryRow(ctx, query, userID, tournamentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration for user %s in tournament %s: %w", userID, tournamentID, err)
	}
	return reg, nil
}

// ListByTournament returns all registrations in a tournament, in signup order
func (r *RegistrationRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY registration_time
	`

	return r.listRegistrations(ctx, query, tournamentID)
}

// ListByUser returns all of a user's registrations, newest first
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1
		ORDER BY registration_time DESC
	`

	return r.listRegistrations(ctx, query, userID)
}

func (r *RegistrationRepository) listRegistrations(ctx context.Context, query string, args ...any) ([]*models.Registration, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var regs []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return regs, nil
}

// Delete removes a registration
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("registration %s not found", id)
	}
	return nil
}

// RecordResult stores a player's final placement, kill count, and winnings
func (r *RegistrationRepository) RecordResult(ctx context.Context, id string, position, kills int, prizeWon int64) error {
	query := `
		UPDATE registrations
		SET position = $2, kills = $3, prize_won = $4
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id, position, kills, prizeWon)
	if err != nil {
		return fmt.Errorf("failed to record result for registration %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("registration %s not found", id)
	}
	return nil
}
