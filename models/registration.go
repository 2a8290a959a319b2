package models

import (
	"time"
)

// Registration relates one player to one tournament. EntryFeePaid is a
// snapshot of the tournament's fee at registration time so later fee
// changes never alter history. Position, Kills and PrizeWon are filled in
// after the match.
type Registration struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	UserName         string     `db:"user_name"`
	UserEmail        string     `db:"user_email"`
	TournamentID     string     `db:"tournament_id"`
	TeamName         *string    `db:"team_name"`
	EntryFeePaid     int64      `db:"entry_fee_paid"`
	SlotNumber       *int       `db:"slot_number"`
	Position         *int       `db:"position"`
	Kills            *int       `db:"kills"`
	PrizeWon         *int64     `db:"prize_won"`
	RegistrationTime time.Time  `db:"registration_time"`
}
