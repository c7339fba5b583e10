package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/gateway"
)

// --- Mock Discord session ---

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

type mockSession struct {
	mu          sync.Mutex
	opened      bool
	closeCalled bool
	openErr     error
	sendErrs    []error
	sent        []sentMessage
	handlers    []interface{}
	removed     int
	channels    map[string]*discordgo.Channel
}

func newMockSession() *mockSession {
	return &mockSession{channels: make(map[string]*discordgo.Channel)}
}

func (m *mockSession) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return nil
}

func (m *mockSession) Channel(channelID string) (*discordgo.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[channelID]; ok {
		return ch, nil
	}
	return nil, errors.New("state cache miss")
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sendErrs) > 0 {
		err := m.sendErrs[0]
		m.sendErrs = m.sendErrs[1:]
		return nil, err
	}
	m.sent = append(m.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{ID: "msg-1"}, nil
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.removed++
	}
}

func (m *mockSession) sentMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

// fireReady invokes the registered Ready handler like discordgo would.
func (m *mockSession) fireReady(userID string) {
	m.mu.Lock()
	handlers := append([]interface{}(nil), m.handlers...)
	m.mu.Unlock()
	for _, h := range handlers {
		if fn, ok := h.(func(*discordgo.Session, *discordgo.Ready)); ok {
			fn(nil, &discordgo.Ready{User: &discordgo.User{ID: userID, Username: "bot"}})
		}
	}
}

func newTestAdapter(t *testing.T) (*Adapter, *mockSession) {
	t.Helper()
	sess := newMockSession()
	a, err := New(AdapterOpts{Session: sess})
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background()))
	sess.fireReady("BOT_ID")
	// fast retries
	a.baseBackoff = time.Millisecond
	return a, sess
}

func receive(t *testing.T, ch <-chan gateway.InboundMessage) gateway.InboundMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound message")
		return gateway.InboundMessage{}
	}
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := New(AdapterOpts{})
	require.Error(t, err)

	a, err := New(AdapterOpts{BotToken: "token"})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestConnect(t *testing.T) {
	a, sess := newTestAdapter(t)

	assert.True(t, sess.opened)
	assert.Equal(t, "BOT_ID", a.BotUserID())
	require.NoError(t, a.Connect(context.Background()))
}

func TestConnect_OpenError(t *testing.T) {
	sess := newMockSession()
	sess.openErr = errors.New("invalid token")

	a, err := New(AdapterOpts{Session: sess})
	require.NoError(t, err)

	err = a.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open gateway")
}

func TestListen_NotConnected(t *testing.T) {
	a, err := New(AdapterOpts{Session: newMockSession()})
	require.NoError(t, err)

	_, err = a.Listen(context.Background())
	require.Error(t, err)
}

func TestHandleMessage(t *testing.T) {
	a, _ := newTestAdapter(t)

	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	a.handleMessage(&discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "123456789012345678",
			ChannelID: "C1",
			Content:   "<@BOT_ID> discuss caching",
			Author:    &discordgo.User{ID: "U_ALICE", Username: "Alice"},
		},
	})

	msg := receive(t, ch)
	assert.Equal(t, "discord", msg.Platform)
	assert.Equal(t, "C1", msg.ChannelID)
	assert.Empty(t, msg.ThreadID)
	assert.Equal(t, "U_ALICE", msg.UserID)
	assert.Equal(t, "Alice", msg.UserName)
	assert.Equal(t, "discuss caching", msg.Text)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHandleMessage_Filters(t *testing.T) {
	a, _ := newTestAdapter(t)

	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "1", ChannelID: "C1", Content: "no author"}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "2", ChannelID: "C1", Content: "self", Author: &discordgo.User{ID: "BOT_ID"}}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "3", ChannelID: "C1", Content: "bot", Author: &discordgo.User{ID: "B2", Bot: true}}})
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "4", ChannelID: "C1", Content: "real", Author: &discordgo.User{ID: "U1"}}})

	msg := receive(t, ch)
	assert.Equal(t, "real", msg.Text)
}

func TestHandleMessage_Thread(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.channels["T1"] = &discordgo.Channel{ID: "T1", ParentID: "C1", Type: discordgo.ChannelTypeGuildPublicThread}

	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID: "5", ChannelID: "T1", Content: "<@!BOT_ID> continue", Author: &discordgo.User{ID: "U1"},
	}})

	msg := receive(t, ch)
	assert.Equal(t, "C1", msg.ChannelID)
	assert.Equal(t, "T1", msg.ThreadID)
	assert.Equal(t, "continue", msg.Text)
}

func TestSend(t *testing.T) {
	a, sess := newTestAdapter(t)

	require.NoError(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: "hello"}))
	require.NoError(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", ThreadID: "T1", Text: "in thread"}))

	sent := sess.sentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "C1", sent[0].channelID)
	assert.Equal(t, "hello", sent[0].data.Content)
	assert.Equal(t, "T1", sent[1].channelID)

	require.Error(t, a.Send(context.Background(), gateway.OutboundMessage{Text: "nowhere"}))
}

func TestSend_SplitsLongMessages(t *testing.T) {
	a, sess := newTestAdapter(t)

	long := strings.Repeat("a", 1500) + "\n" + strings.Repeat("b", 1500)
	require.NoError(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: long}))

	sent := sess.sentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, strings.Repeat("a", 1500), sent[0].data.Content)
	assert.Equal(t, strings.Repeat("b", 1500), sent[1].data.Content)
}

func TestSend_RetriesOnRateLimit(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErrs = []error{&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusTooManyRequests}}}

	require.NoError(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: "hello"}))
	assert.Len(t, sess.sentMessages(), 1)
}

func TestSend_OtherErrorsAreNotRetried(t *testing.T) {
	a, sess := newTestAdapter(t)
	sess.sendErrs = []error{&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}}

	require.Error(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: "hello"}))
	assert.Empty(t, sess.sentMessages())
}

func TestClose(t *testing.T) {
	a, sess := newTestAdapter(t)

	ch, err := a.Listen(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.True(t, sess.closeCalled)
	assert.Equal(t, 1, sess.removed)

	// late events after close are dropped
	a.handleMessage(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "9", ChannelID: "C1", Content: "late", Author: &discordgo.User{ID: "U1"}}})

	require.Error(t, a.Send(context.Background(), gateway.OutboundMessage{ChannelID: "C1", Text: "x"}))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)

	// counts characters, not bytes
	assert.Equal(t, []string{"讨论讨论"}, splitMessage("讨论讨论", 4))
}
