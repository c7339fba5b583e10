package memory

import (
	"iter"
	"slices"
	"sync"

	"github.com/hupe1980/agentteam/core"
)

// Log is the ordered, append-only message history of a single team.
//
// Concurrency: protected by RWMutex. Rendered views hold a reference to the
// prefix that existed at render time; since entries are never rewritten the
// prefix stays valid after further appends.
type Log struct {
	mu       sync.RWMutex
	messages []core.Message
	window   int
}

// Options configures a Log.
type Options struct {
	// Window bounds how many of the most recent messages a rendered view
	// includes. It never removes messages from the log. 0 means unbounded.
	Window int
}

// NewLog creates an empty log.
func NewLog(optFns ...func(o *Options)) *Log {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Window < 0 {
		opts.Window = 0
	}

	return &Log{window: opts.Window}
}

// WithWindow limits rendered views to the n most recent messages.
func WithWindow(n int) func(o *Options) {
	return func(o *Options) { o.Window = n }
}

// Append adds a message to the end of the log and returns it.
func (l *Log) Append(kind core.AuthorKind, content, authorID, authorName string) core.Message {
	msg := core.NewMessage(kind, content, authorID, authorName)

	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	return msg
}

// AppendUser is shorthand for appending a human message.
func (l *Log) AppendUser(content string) core.Message {
	return l.Append(core.AuthorUser, content, "", "")
}

// RenderFor returns the log as seen by viewer. The sequence is lazy and can be
// ranged over any number of times; it always yields the same elements because
// it is bound to the prefix present when RenderFor was called.
//
// An empty viewer renders every participant message as attributed user input.
func (l *Log) RenderFor(viewer string) iter.Seq[core.ViewMessage] {
	snapshot := l.snapshot()

	return func(yield func(core.ViewMessage) bool) {
		for _, m := range snapshot {
			if !yield(render(m, viewer)) {
				return
			}
		}
	}
}

// View collects RenderFor into a slice.
func (l *Log) View(viewer string) []core.ViewMessage {
	return slices.Collect(l.RenderFor(viewer))
}

// Messages returns a copy of all messages in insertion order.
func (l *Log) Messages() []core.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.messages)
}

// Count returns the number of messages in the log.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.messages)
}

// Clear removes every message. Views rendered before Clear are unaffected.
func (l *Log) Clear() {
	l.mu.Lock()
	l.messages = nil
	l.mu.Unlock()
}

func (l *Log) snapshot() []core.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	msgs := l.messages
	if l.window > 0 && len(msgs) > l.window {
		msgs = msgs[len(msgs)-l.window:]
	}

	// full slice expression so later appends can never grow into the view
	return msgs[:len(msgs):len(msgs)]
}

func render(m core.Message, viewer string) core.ViewMessage {
	if m.AuthorKind == core.AuthorUser {
		return core.ViewMessage{Role: core.RoleUser, Content: m.Content}
	}

	if viewer != "" && m.AuthorName == viewer {
		return core.ViewMessage{Role: core.RoleAssistant, Content: m.Content}
	}

	return core.ViewMessage{Role: core.RoleUser, Content: "[" + m.AuthorName + "]: " + m.Content}
}
