package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"forum-sentinel/app/pipeline"
	"forum-sentinel/app/scanner"
)

// ErrEmptyToken indicates that no Discord token was provided.
var ErrEmptyToken = errors.New("discord token must be set")

// session abstracts the discordgo.Session methods used by the Gateway so it
// can be mocked in tests. *discordgo.Session satisfies this interface.
type session interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// MessageHandler receives every chat message not authored by the bot itself.
type MessageHandler func(author, content, channel string, postedAt time.Time)

// Gateway wraps a Discord session. It delivers notifications and plain
// messages to named channels and hands incoming messages to a handler.
type Gateway struct {
	session session
	state   *discordgo.State

	mu       sync.Mutex
	channels map[string]string
	handler  MessageHandler
}

var _ pipeline.Notifier = (*Gateway)(nil)
var _ scanner.Notifier = (*Gateway)(nil)

func NewGateway(token string) (*Gateway, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	return &Gateway{
		session:  s,
		state:    s.State,
		channels: make(map[string]string),
	}, nil
}

// newGatewayWithSession injects a pre-configured session, for tests.
func newGatewayWithSession(s session) *Gateway {
	return &Gateway{
		session:  s,
		channels: make(map[string]string),
	}
}

// SetMessageHandler registers the callback for incoming chat messages.
func (g *Gateway) SetMessageHandler(handler MessageHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = handler
}

// Open connects to Discord and starts dispatching incoming messages.
func (g *Gateway) Open() error {
	g.session.AddHandler(g.onMessageCreate)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	return nil
}

func (g *Gateway) Close() error {
	return g.session.Close()
}

// SendMessage delivers a plain text message to a named channel.
func (g *Gateway) SendMessage(ctx context.Context, channel, content string) error {
	channelID, err := g.channelID(channel)
	if err != nil {
		return err
	}

	if _, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channel, err)
	}

	return nil
}

// SendActivity delivers a forum notification to a named channel as an embed.
func (g *Gateway) SendActivity(ctx context.Context, channel string, note pipeline.Notification) error {
	channelID, err := g.channelID(channel)
	if err != nil {
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       note.Title,
		URL:         note.URL,
		Description: note.Description,
		Timestamp:   note.Timestamp.UTC().Format(time.RFC3339),
	}
	if note.AuthorName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    note.AuthorName,
			IconURL: note.AuthorIconURL,
		}
	}
	for _, field := range note.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  field.Name,
			Value: field.Value,
		})
	}

	if _, err := g.session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", channel, err)
	}

	return nil
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	// Ignore messages from the bot itself.
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	g.mu.Lock()
	handler := g.handler
	g.mu.Unlock()
	if handler == nil {
		return
	}

	handler(m.Author.Username, m.Content, g.describeChannel(s, m.ChannelID), m.Timestamp)
}

func (g *Gateway) describeChannel(s *discordgo.Session, channelID string) string {
	if s.State != nil {
		if channel, err := s.State.Channel(channelID); err == nil {
			return "#" + channel.Name
		}
	}
	return channelID
}

// channelID resolves a configured channel name to its ID via session state.
// Values that are already IDs pass through unchanged.
func (g *Gateway) channelID(channel string) (string, error) {
	g.mu.Lock()
	cached, ok := g.channels[channel]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	if isSnowflake(channel) {
		return channel, nil
	}

	if g.state == nil {
		return "", fmt.Errorf("channel %q not found", channel)
	}

	g.state.RLock()
	defer g.state.RUnlock()
	for _, guild := range g.state.Guilds {
		for _, ch := range guild.Channels {
			if ch.Name == channel {
				g.mu.Lock()
				g.channels[channel] = ch.ID
				g.mu.Unlock()

				slog.Debug("Resolved channel", "name", channel, "id", ch.ID)
				return ch.ID, nil
			}
		}
	}

	return "", fmt.Errorf("channel %q not found", channel)
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
