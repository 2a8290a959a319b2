package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Callers match them with
// errors.Is to map failures to API responses.
var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrTournamentFull       = errors.New("tournament is full")
	ErrAlreadyRegistered    = errors.New("already registered for this tournament")
	ErrRegistrationClosed   = errors.New("tournament is not accepting registrations")
	ErrInvalidTransition    = errors.New("invalid tournament status transition")
	ErrUnavailable          = errors.New("operation temporarily unavailable, please retry")
)

// InsufficientBalanceError reports a debit that would overdraw a wallet,
// including how far short the balance fell.
type InsufficientBalanceError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d (short %d)", e.Balance, e.Required, e.Shortfall())
}

// Shortfall returns how much more the wallet needed to cover the charge
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Required - e.Balance
}

// ValidationError reports a request that failed input validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
