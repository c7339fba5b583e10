package core

import (
	"time"

	"github.com/google/uuid"
)

// AuthorKind distinguishes human input from participant replies in the log.
type AuthorKind string

const (
	// AuthorUser marks a message written by the human side of the discussion.
	AuthorUser AuthorKind = "user"
	// AuthorParticipant marks a message produced by a discussion participant.
	AuthorParticipant AuthorKind = "participant"
)

// Role is the two-role protocol participants consume.
type Role string

const (
	// RoleUser is everything the viewer did not write itself.
	RoleUser Role = "user"
	// RoleAssistant is a message the viewer authored.
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation log. After it has been appended
// it must be treated as immutable.
type Message struct {
	ID         string     `json:"id" yaml:"id"`
	AuthorKind AuthorKind `json:"author_kind" yaml:"author_kind"`
	AuthorID   string     `json:"author_id,omitempty" yaml:"author_id,omitempty"`
	AuthorName string     `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	Content    string     `json:"content" yaml:"content"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
}

// NewMessage creates a message with a fresh ID and the current timestamp.
func NewMessage(kind AuthorKind, content, authorID, authorName string) Message {
	return Message{
		ID:         NewID(),
		AuthorKind: kind,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    content,
		CreatedAt:  time.Now(),
	}
}

// IsUser reports whether the message came from the human side.
func (m Message) IsUser() bool { return m.AuthorKind == AuthorUser }

// ViewMessage is one element of a perspective-rendered conversation.
type ViewMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewID returns a random unique identifier.
func NewID() string {
	return uuid.NewString()
}
