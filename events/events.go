package events

import (
	"context"
	"sync"
	"time"

	"ffarena/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePlayerRegistered        EventType = "player_registered"
	EventTypePlayerUnregistered      EventType = "player_unregistered"
	EventTypeTournamentStatusChanged EventType = "tournament_status_changed"
	EventTypeWalletCredited          EventType = "wallet_credited"
	EventTypeWalletDebited           EventType = "wallet_debited"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PlayerRegisteredEvent represents a player joining a tournament
type PlayerRegisteredEvent struct {
	RegistrationID string
	UserID         string
	UserName       string
	TournamentID   string
	TournamentName string
	EntryFeePaid   int64
	SlotsTaken     int
	MaxSlots       int
}

func (e PlayerRegisteredEvent) Type() EventType {
	return EventTypePlayerRegistered
}

// PlayerUnregisteredEvent represents a player leaving a tournament
type PlayerUnregisteredEvent struct {
	RegistrationID string
	UserID         string
	TournamentID   string
	TournamentName string
}

func (e PlayerUnregisteredEvent) Type() EventType {
	return EventTypePlayerUnregistered
}

// TournamentStatusChangedEvent represents a tournament lifecycle transition
type TournamentStatusChangedEvent struct {
	TournamentID   string
	TournamentName string
	OldStatus      models.TournamentStatus
	NewStatus      models.TournamentStatus
	OccurredAt     time.Time
}

func (e TournamentStatusChangedEvent) Type() EventType {
	return EventTypeTournamentStatusChanged
}

// WalletCreditedEvent represents money added to a wallet
type WalletCreditedEvent struct {
	UserID          string
	Amount          int64
	NewBalance      int64
	TransactionType models.TransactionType
	TournamentID    string
}

func (e WalletCreditedEvent) Type() EventType {
	return EventTypeWalletCredited
}

// WalletDebitedEvent represents money removed from a wallet
type WalletDebitedEvent struct {
	UserID          string
	Amount          int64
	NewBalance      int64
	TransactionType models.TransactionType
	TournamentID    string
}

func (e WalletDebitedEvent) Type() EventType {
	return EventTypeWalletDebited
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type on main event bus")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers on main event bus")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events from transactional bus to main event bus")

	// Use background context for event emission to avoid issues with transaction context expiration
	// Events should be processed independently of the transaction lifecycle
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
