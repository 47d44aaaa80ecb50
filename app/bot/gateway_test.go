package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"forum-sentinel/app/pipeline"
)

type sentMessage struct {
	channelID string
	content   string
}

type sentEmbed struct {
	channelID string
	embed     *discordgo.MessageEmbed
}

type mockSession struct {
	handlers []interface{}
	opened   bool
	closed   bool
	messages []sentMessage
	embeds   []sentEmbed
	sendErr  error
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.handlers = append(m.handlers, handler)
	return func() {}
}

func (m *mockSession) Open() error {
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

func (m *mockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.messages = append(m.messages, sentMessage{channelID: channelID, content: content})
	return nil, m.sendErr
}

func (m *mockSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.embeds = append(m.embeds, sentEmbed{channelID: channelID, embed: embed})
	return nil, m.sendErr
}

func TestNewGatewayEmptyToken(t *testing.T) {
	if _, err := NewGateway(""); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("Expected ErrEmptyToken, got: %v", err)
	}
}

func TestSendMessageSnowflakePassthrough(t *testing.T) {
	session := &mockSession{}
	gateway := newGatewayWithSession(session)

	if err := gateway.SendMessage(context.Background(), "123456789012345678", "hello"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(session.messages) != 1 {
		t.Fatalf("Expected 1 message, got: %d", len(session.messages))
	}
	if session.messages[0].channelID != "123456789012345678" {
		t.Errorf("Expected ID passed through unchanged, got: %s", session.messages[0].channelID)
	}
	if session.messages[0].content != "hello" {
		t.Errorf("Unexpected content: %s", session.messages[0].content)
	}
}

func TestSendMessageResolvesChannelName(t *testing.T) {
	session := &mockSession{}
	gateway := newGatewayWithSession(session)

	state := discordgo.NewState()
	state.Guilds = append(state.Guilds, &discordgo.Guild{
		ID: "guild-1",
		Channels: []*discordgo.Channel{
			{ID: "42", Name: "key-alerts"},
		},
	})
	gateway.state = state

	ctx := context.Background()
	if err := gateway.SendMessage(ctx, "key-alerts", "first"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := gateway.SendMessage(ctx, "key-alerts", "second"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(session.messages) != 2 {
		t.Fatalf("Expected 2 messages, got: %d", len(session.messages))
	}
	for _, message := range session.messages {
		if message.channelID != "42" {
			t.Errorf("Expected channel resolved to 42, got: %s", message.channelID)
		}
	}
}

func TestSendMessageUnknownChannel(t *testing.T) {
	session := &mockSession{}
	gateway := newGatewayWithSession(session)

	err := gateway.SendMessage(context.Background(), "no-such-channel", "hello")
	if err == nil {
		t.Fatal("Expected error for unknown channel")
	}
	if len(session.messages) != 0 {
		t.Errorf("Expected no message sent, got: %d", len(session.messages))
	}
}

func TestSendActivityEmbed(t *testing.T) {
	session := &mockSession{}
	gateway := newGatewayWithSession(session)

	postedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	note := pipeline.Notification{
		Title:         `Foo answered "How do I shot web?"`,
		URL:           "https://forum.example.com/questions/1/?childToView=2#answer-2",
		AuthorName:    "Foo",
		AuthorIconURL: "https://avatar.example.com/NA/Foo.png",
		Timestamp:     postedAt,
		Fields: []pipeline.Field{
			{Name: "Question", Value: "question body"},
			{Name: "Answer", Value: "answer body"},
		},
	}

	if err := gateway.SendActivity(context.Background(), "123456789", note); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(session.embeds) != 1 {
		t.Fatalf("Expected 1 embed, got: %d", len(session.embeds))
	}
	embed := session.embeds[0].embed

	if embed.Title != note.Title {
		t.Errorf("Unexpected title: %s", embed.Title)
	}
	if embed.URL != note.URL {
		t.Errorf("Unexpected URL: %s", embed.URL)
	}
	if embed.Timestamp != "2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected timestamp: %s", embed.Timestamp)
	}
	if embed.Author == nil || embed.Author.Name != "Foo" || embed.Author.IconURL != note.AuthorIconURL {
		t.Errorf("Unexpected author: %+v", embed.Author)
	}
	if len(embed.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got: %d", len(embed.Fields))
	}
	if embed.Fields[0].Name != "Question" || embed.Fields[1].Value != "answer body" {
		t.Errorf("Unexpected fields: %+v", embed.Fields)
	}
}

func TestOnMessageCreateInvokesHandler(t *testing.T) {
	gateway := newGatewayWithSession(&mockSession{})

	var gotAuthor, gotContent, gotChannel string
	var gotPostedAt time.Time
	gateway.SetMessageHandler(func(author, content, channel string, postedAt time.Time) {
		gotAuthor = author
		gotContent = content
		gotChannel = channel
		gotPostedAt = postedAt
	})

	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "bot-id"}

	postedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	gateway.onMessageCreate(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:    &discordgo.User{ID: "user-id", Username: "Foo"},
		Content:   "some chat message",
		ChannelID: "123456789",
		Timestamp: postedAt,
	}})

	if gotAuthor != "Foo" {
		t.Errorf("Expected author 'Foo', got: %s", gotAuthor)
	}
	if gotContent != "some chat message" {
		t.Errorf("Unexpected content: %s", gotContent)
	}
	// Channel name is unknown to the state, so the raw ID is reported.
	if gotChannel != "123456789" {
		t.Errorf("Unexpected channel: %s", gotChannel)
	}
	if !gotPostedAt.Equal(postedAt) {
		t.Errorf("Unexpected timestamp: %v", gotPostedAt)
	}
}

func TestOnMessageCreateIgnoresOwnMessages(t *testing.T) {
	gateway := newGatewayWithSession(&mockSession{})

	invoked := false
	gateway.SetMessageHandler(func(author, content, channel string, postedAt time.Time) {
		invoked = true
	})

	s := &discordgo.Session{State: discordgo.NewState()}
	s.State.User = &discordgo.User{ID: "bot-id"}

	gateway.onMessageCreate(s, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author:  &discordgo.User{ID: "bot-id", Username: "sentinel"},
		Content: "self message",
	}})

	if invoked {
		t.Error("Expected the bot's own messages to be ignored")
	}
}

func TestOpenRegistersHandler(t *testing.T) {
	session := &mockSession{}
	gateway := newGatewayWithSession(session)

	if err := gateway.Open(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !session.opened {
		t.Error("Expected the session to be opened")
	}
	if len(session.handlers) != 1 {
		t.Errorf("Expected 1 registered handler, got: %d", len(session.handlers))
	}

	if err := gateway.Close(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !session.closed {
		t.Error("Expected the session to be closed")
	}
}
