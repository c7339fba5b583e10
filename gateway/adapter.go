// Package gateway connects the discussion engine to chat platforms (Slack,
// Discord, etc.). A Bridge pumps inbound messages from an Adapter into the
// session handler and routes every reply back to the conversation it came
// from.
package gateway

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must satisfy.
// Each adapter handles connection management and message sending/receiving
// for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound messages from the platform.
	// The channel is closed when the adapter is closed. Listen must only be
	// called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message received from the chat platform.
type InboundMessage struct {
	Platform  string    // e.g. "slack", "discord"
	ChannelID string    // platform-specific channel identifier
	ThreadID  string    // thread/conversation identifier (empty if top-level)
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	Text      string    // message text with bot mentions removed
	Timestamp time.Time // when the message was sent
}

// SessionKey identifies the discussion a message belongs to: one per channel,
// or per thread when the message was posted inside one.
func (m InboundMessage) SessionKey() string {
	key := m.Platform + ":" + m.ChannelID
	if m.ThreadID != "" {
		key += ":" + m.ThreadID
	}
	return key
}

// Reply builds an outbound message answering in the same channel and thread.
func (m InboundMessage) Reply(text string) OutboundMessage {
	return OutboundMessage{ChannelID: m.ChannelID, ThreadID: m.ThreadID, Text: text}
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string // target channel
	ThreadID  string // thread to reply in (empty for a top-level message)
	Text      string // message text (platform-native formatting)
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID.
type BotUserIDer interface {
	BotUserID() string
}
