package announcer

import (
	"context"
	"fmt"

	"ffarena/events"
	"ffarena/models"

	log "github.com/sirupsen/logrus"

	"github.com/bwmarrin/discordgo"
)

// Config holds announcer configuration
type Config struct {
	Token     string
	ChannelID string
}

// Announcer posts tournament happenings to a Discord channel. It listens on
// the event bus, so announcements only go out for changes that committed.
type Announcer struct {
	config  Config
	session *discordgo.Session
}

// New creates an announcer and subscribes it to the event bus
func New(config Config, eventBus *events.Bus) (*Announcer, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}

	a := &Announcer{
		config:  config,
		session: dg,
	}

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	eventBus.Subscribe(events.EventTypePlayerRegistered, a.handlePlayerRegistered)
	eventBus.Subscribe(events.EventTypeTournamentStatusChanged, a.handleStatusChanged)

	log.WithField("channelId", config.ChannelID).Info("Discord announcer connected")
	return a, nil
}

func (a *Announcer) handlePlayerRegistered(_ context.Context, event events.Event) {
	e, ok := event.(events.PlayerRegisteredEvent)
	if !ok {
		return
	}

	msg := fmt.Sprintf("**%s** joined **%s** (%d/%d slots filled)",
		e.UserName, e.TournamentName, e.SlotsTaken, e.MaxSlots)
	a.send(msg)
}

func (a *Announcer) handleStatusChanged(_ context.Context, event events.Event) {
	e, ok := event.(events.TournamentStatusChangedEvent)
	if !ok {
		return
	}

	var msg string
	switch e.NewStatus {
	case models.TournamentStatusOngoing:
		msg = fmt.Sprintf(":crossed_swords: **%s** is now live!", e.TournamentName)
	case models.TournamentStatusCompleted:
		msg = fmt.Sprintf(":checkered_flag: **%s** has finished. Results are being collected.", e.TournamentName)
	case models.TournamentStatusAwaitingPayout:
		msg = fmt.Sprintf(":moneybag: **%s** is awaiting payout.", e.TournamentName)
	case models.TournamentStatusPaid:
		msg = fmt.Sprintf(":trophy: Prizes for **%s** have been paid out. GG!", e.TournamentName)
	case models.TournamentStatusCancelled:
		msg = fmt.Sprintf(":no_entry: **%s** was cancelled. Entry fees have been refunded.", e.TournamentName)
	default:
		return
	}
	a.send(msg)
}

func (a *Announcer) send(msg string) {
	if _, err := a.session.ChannelMessageSend(a.config.ChannelID, msg); err != nil {
		log.WithError(err).Warn("Failed to send Discord announcement")
	}
}

// Close shuts down the Discord session
func (a *Announcer) Close() error {
	return a.session.Close()
}
