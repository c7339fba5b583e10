package transcript

import (
	"errors"
	"slices"
	"time"

	"github.com/hupe1980/agentteam/core"
)

// ErrNotFound is returned when a transcript for the given session / id pair
// does not exist in the underlying store.
var ErrNotFound = errors.New("transcript not found")

// Reason records why a discussion was archived.
type Reason string

const (
	// ReasonEnded means a user sent the end command.
	ReasonEnded Reason = "ended"
	// ReasonExpired means the session was removed after being idle.
	ReasonExpired Reason = "expired"
)

// Transcript is the archived record of one discussion.
type Transcript struct {
	ID           string         `json:"id" yaml:"id"`
	SessionID    string         `json:"session_id" yaml:"session_id"`
	Topic        string         `json:"topic" yaml:"topic"`
	Mode         string         `json:"mode" yaml:"mode"`
	Participants []string       `json:"participants" yaml:"participants"`
	Rounds       int            `json:"rounds" yaml:"rounds"`
	Reason       Reason         `json:"reason" yaml:"reason"`
	StartedAt    time.Time      `json:"started_at" yaml:"started_at"`
	EndedAt      time.Time      `json:"ended_at" yaml:"ended_at"`
	Messages     []core.Message `json:"messages" yaml:"messages"`
}

// Store persists transcripts grouped by session id.
type Store interface {
	// Save stores t, assigning an ID when it has none.
	Save(t Transcript) (Transcript, error)
	Get(sessionID, id string) (Transcript, error)
	// List returns the transcripts of a session ordered by EndedAt.
	List(sessionID string) ([]Transcript, error)
	Delete(sessionID, id string) error
}

func (t Transcript) clone() Transcript {
	t.Participants = slices.Clone(t.Participants)
	t.Messages = slices.Clone(t.Messages)
	return t
}

func prepare(t Transcript) (Transcript, error) {
	if t.SessionID == "" {
		return Transcript{}, errors.New("transcript: session id is required")
	}
	if t.ID == "" {
		t.ID = core.NewID()
	}
	return t.clone(), nil
}

func sortByEnd(ts []Transcript) {
	slices.SortStableFunc(ts, func(a, b Transcript) int { return a.EndedAt.Compare(b.EndedAt) })
}
