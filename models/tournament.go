package models

import (
	"time"
)

// TournamentStatus represents the lifecycle state of a tournament
type TournamentStatus string

const (
	TournamentStatusUpcoming       TournamentStatus = "upcoming"
	TournamentStatusOngoing        TournamentStatus = "ongoing"
	TournamentStatusCompleted      TournamentStatus = "completed"
	TournamentStatusAwaitingPayout TournamentStatus = "awaiting_payout"
	TournamentStatusPaid           TournamentStatus = "paid"
	TournamentStatusCancelled      TournamentStatus = "cancelled"
	TournamentStatusDeleted        TournamentStatus = "deleted"
)

// TournamentMode represents the team composition of a tournament
type TournamentMode string

const (
	TournamentModeSolo       TournamentMode = "solo"
	TournamentModeDuo        TournamentMode = "duo"
	TournamentModeSquad      TournamentMode = "squad"
	TournamentModeClashSquad TournamentMode = "clash-squad"
)

// TournamentType represents the scoring rules of a tournament
type TournamentType string

const (
	TournamentTypePerKill  TournamentType = "per-kill"
	TournamentTypeSurvival TournamentType = "survival"
	TournamentTypeTopKill  TournamentType = "top-kill"
)

// validStatusTransitions defines the forward-only lifecycle progression.
// cancelled is reachable from any pre-completion state; deleted (soft
// delete) is reachable from anywhere.
var validStatusTransitions = map[TournamentStatus][]TournamentStatus{
	TournamentStatusUpcoming:       {TournamentStatusOngoing, TournamentStatusCompleted, TournamentStatusCancelled, TournamentStatusDeleted},
	TournamentStatusOngoing:        {TournamentStatusCompleted, TournamentStatusCancelled, TournamentStatusDeleted},
	TournamentStatusCompleted:      {TournamentStatusAwaitingPayout, TournamentStatusCancelled, TournamentStatusDeleted},
	TournamentStatusAwaitingPayout: {TournamentStatusPaid, TournamentStatusCancelled, TournamentStatusDeleted},
	TournamentStatusPaid:           {TournamentStatusDeleted},
	TournamentStatusCancelled:      {TournamentStatusDeleted},
}

// CanTransitionTo reports whether a tournament may move from one status to another
func CanTransitionTo(current, target TournamentStatus) bool {
	for _, s := range validStatusTransitions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Tournament represents a scheduled Free Fire tournament
type Tournament struct {
	ID              string           `db:"id"`
	Name            string           `db:"name"`
	Description     string           `db:"description"`
	Mode            TournamentMode   `db:"mode"`
	Type            TournamentType   `db:"type"`
	EntryFee        int64            `db:"entry_fee"`
	PrizePool       int64            `db:"prize_pool"`
	MaxSlots        int              `db:"max_slots"`
	RegisteredSlots int              `db:"registered_slots"`
	Status          TournamentStatus `db:"status"`
	StartTime       time.Time        `db:"start_time"`
	EndTime         *time.Time       `db:"end_time"`
	RoomID          *string          `db:"room_id"`
	RoomPassword    *string          `db:"room_password"`
	CreatedAt       time.Time        `db:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at"`
}

// IsFull reports whether every slot is taken
func (t *Tournament) IsFull() bool {
	return t.RegisteredSlots >= t.MaxSlots
}

// AcceptingRegistrations reports whether players may still register.
// Only upcoming tournaments accept registrations.
func (t *Tournament) AcceptingRegistrations() bool {
	return t.Status == TournamentStatusUpcoming
}
