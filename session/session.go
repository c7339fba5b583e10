package session

import (
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/team"
)

// State is the phase a session is in.
type State string

const (
	// StateSelecting waits for the user to pick participants.
	StateSelecting State = "selecting"
	// StateDiscussing runs rounds on every user message.
	StateDiscussing State = "discussing"
)

// Session is one ongoing discussion bound to an external session id.
//
// Its fields are guarded by an internal mutex so status readers never block
// on a running round; the handler additionally serializes all events of a
// session through the registry lock.
type Session struct {
	id         string
	topic      string
	team       *team.Team
	candidates []catalog.Definition
	limiter    *core.RoundLimiter
	createdAt  time.Time

	mu           sync.RWMutex
	state        State
	participants []string
	roundCount   int
	messageCount int
	lastActive   time.Time
}

// Info is a read-only snapshot of a session.
type Info struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	State        State     `json:"state"`
	Participants []string  `json:"participants"`
	RoundCount   int       `json:"round_count"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
}

func newSession(id, topic string, t *team.Team, candidates []catalog.Definition, maxRounds int, now time.Time) *Session {
	return &Session{
		id:         id,
		topic:      topic,
		team:       t,
		candidates: candidates,
		limiter:    core.NewRoundLimiter(maxRounds),
		createdAt:  now,
		state:      StateSelecting,
		lastActive: now,
	}
}

// ID returns the external session id.
func (s *Session) ID() string { return s.id }

// Topic returns the discussion topic.
func (s *Session) Topic() string { return s.topic }

// Team returns the team discussing in this session.
func (s *Session) Team() *team.Team { return s.team }

// State returns the current phase.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Info{
		ID:           s.id,
		Topic:        s.topic,
		State:        s.state,
		Participants: slices.Clone(s.participants),
		RoundCount:   s.roundCount,
		MessageCount: s.messageCount,
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
	}
}

func (s *Session) startDiscussing(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDiscussing
	s.participants = names
}

func (s *Session) setRound(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roundCount = n
}

func (s *Session) addMessages(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageCount += n
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastActive)
}
