// Package team provides the Team façade: a bounded, insertion ordered set of
// participants that discuss over one shared conversation log.
package team

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/memory"
	"github.com/hupe1980/agentteam/orchestrator"
)

// DefaultCapacity is the participant limit used when none is configured.
const DefaultCapacity = 10

// Options configures a Team.
type Options struct {
	ID       string
	Capacity int
	Mode     orchestrator.Mode
	Timeout  time.Duration
	// HistoryWindow bounds the rendered view each participant receives.
	HistoryWindow int
	Logger        logging.Logger
}

// Team owns a conversation log and the participants discussing over it.
type Team struct {
	id           string
	name         string
	capacity     int
	log          *memory.Log
	orchestrator *orchestrator.Orchestrator
	logger       logging.Logger

	mu           sync.RWMutex
	order        []string
	participants map[string]*agent.Participant
}

// New creates an empty team.
func New(name string, optFns ...func(o *Options)) *Team {
	opts := Options{
		Capacity: DefaultCapacity,
		Mode:     orchestrator.ModeDebate,
		Timeout:  orchestrator.DefaultTimeout,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = core.NewID()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	logger := logging.With(opts.Logger, "team", name)

	return &Team{
		id:       opts.ID,
		name:     name,
		capacity: opts.Capacity,
		log:      memory.NewLog(memory.WithWindow(opts.HistoryWindow)),
		orchestrator: orchestrator.New(func(o *orchestrator.Options) {
			o.Mode = opts.Mode
			o.Timeout = opts.Timeout
			o.Logger = logger
		}),
		logger:       logger,
		participants: make(map[string]*agent.Participant),
	}
}

// ID returns the team identity.
func (t *Team) ID() string { return t.id }

// Name returns the team name.
func (t *Team) Name() string { return t.name }

// Capacity returns the maximum number of participants.
func (t *Team) Capacity() int { return t.capacity }

// Mode returns the discussion protocol used for rounds.
func (t *Team) Mode() orchestrator.Mode { return t.orchestrator.Mode() }

// Log returns the shared conversation log.
func (t *Team) Log() *memory.Log { return t.log }

// Add appends a participant. It fails without changing the team when the
// team is full or the participant id or name is already present. Names must
// be unique because the log attributes messages to their author by name.
func (t *Team) Add(p *agent.Participant) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.participants[p.ID()]; exists {
		return fmt.Errorf("team %s: %w: %s", t.name, core.ErrDuplicateParticipant, p.ID())
	}

	for _, other := range t.participants {
		if other.Name() == p.Name() {
			return fmt.Errorf("team %s: %w: name %q is taken", t.name, core.ErrDuplicateParticipant, p.Name())
		}
	}

	if len(t.order) >= t.capacity {
		return fmt.Errorf("team %s: %w: capacity %d", t.name, core.ErrCapacityExceeded, t.capacity)
	}

	t.participants[p.ID()] = p
	t.order = append(t.order, p.ID())

	t.logger.Debug("participant added", "participant", p.Name(), "participant_id", p.ID(), "model", p.ModelName())

	return nil
}

// Remove drops a participant. It reports whether the participant existed.
func (t *Team) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.participants[id]; !exists {
		return false
	}

	delete(t.participants, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })

	return true
}

// Participant returns the participant with the given id.
func (t *Team) Participant(id string) (*agent.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.participants[id]
	return p, ok
}

// Participants returns all participants in insertion order.
func (t *Team) Participants() []*agent.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*agent.Participant, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.participants[id])
	}

	return out
}

// Len returns the number of participants.
func (t *Team) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.order)
}

// Discuss runs one round. When addToLog is true, message is appended as user
// input before anybody speaks; otherwise the round continues the discussion.
func (t *Team) Discuss(ctx context.Context, message string, addToLog bool, onResult func(orchestrator.Result)) []orchestrator.Result {
	round := orchestrator.Round{
		Log:          t.log,
		Participants: t.Participants(),
		OnResult:     onResult,
	}

	if addToLog {
		round.UserMessage = message
	}

	return t.orchestrator.Run(ctx, round)
}

// Continue runs a round without new user input.
func (t *Team) Continue(ctx context.Context, onResult func(orchestrator.Result)) []orchestrator.Result {
	return t.Discuss(ctx, "", false, onResult)
}
