package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"stakechat/events"
)

// Config holds notifier configuration
type Config struct {
	Token     string
	ChannelID string
}

// Session is the part of the Discord session the notifier uses
type Session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts wager lifecycle announcements to a Discord channel
type Notifier struct {
	session   Session
	channelID string
	closer    func() error
}

// New opens a Discord session and subscribes the notifier to the event bus
func New(config Config, eventBus *events.Bus) (*Notifier, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	n := NewNotifier(dg, config.ChannelID)
	n.closer = dg.Close
	n.Register(eventBus)

	log.WithField("channelID", config.ChannelID).Info("Discord notifier started")
	return n, nil
}

// NewNotifier creates a notifier over an existing session
func NewNotifier(session Session, channelID string) *Notifier {
	return &Notifier{session: session, channelID: channelID}
}

// Register subscribes to the events the notifier announces
func (n *Notifier) Register(eventBus *events.Bus) {
	eventBus.SubscribeAll(n.handle,
		events.EventTypeReviewerPhaseStarted,
		events.EventTypeWagerSettled,
		events.EventTypeWagerPublished,
	)
}

// Close closes the Discord session if the notifier owns one
func (n *Notifier) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer()
}

func (n *Notifier) handle(ctx context.Context, event events.Event) {
	var embed *discordgo.MessageEmbed
	switch e := event.(type) {
	case events.WagerSettledEvent:
		embed = settlementEmbed(e)
	case events.ReviewerPhaseStartedEvent:
		embed = reviewerPhaseEmbed(e)
	case events.WagerPublishedEvent:
		embed = publishedEmbed(e)
	default:
		return
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"channelID": n.channelID,
			"error":     err,
		}).Error("Failed to post wager notification")
	}
}
