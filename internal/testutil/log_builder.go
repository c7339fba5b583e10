package testutil

import (
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/memory"
)

// LogBuilder helps construct conversation logs with fluent chaining for tests.
// Example:
//
//	log := NewLogBuilder().User("topic").Say("Alice", "hi").Build()
type LogBuilder struct {
	entries []core.Message
}

// NewLogBuilder creates a new, empty builder.
func NewLogBuilder() *LogBuilder {
	return &LogBuilder{}
}

// User appends a human message (chainable).
func (b *LogBuilder) User(text string) *LogBuilder {
	b.entries = append(b.entries, core.Message{AuthorKind: core.AuthorUser, Content: text})
	return b
}

// Say appends a participant message attributed to name (chainable). The
// author id is derived from the name.
func (b *LogBuilder) Say(name, text string) *LogBuilder {
	b.entries = append(b.entries, core.Message{AuthorKind: core.AuthorParticipant, AuthorID: "id-" + name, AuthorName: name, Content: text})
	return b
}

// Build returns a populated *memory.Log.
func (b *LogBuilder) Build(optFns ...func(o *memory.Options)) *memory.Log {
	log := memory.NewLog(optFns...)
	for _, e := range b.entries {
		log.Append(e.AuthorKind, e.Content, e.AuthorID, e.AuthorName)
	}
	return log
}

// Contents returns the content of every message in the log in order.
func Contents(log *memory.Log) []string {
	msgs := log.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
