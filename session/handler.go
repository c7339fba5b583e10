package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/orchestrator"
	"github.com/hupe1980/agentteam/team"
	"github.com/hupe1980/agentteam/transcript"
)

// Emitter delivers text back to the chat a session belongs to.
type Emitter func(ctx context.Context, text string) error

// Catalog provides the participant definitions users select from.
type Catalog interface {
	Definitions() ([]catalog.Definition, error)
	ResolvePersonality(def catalog.Definition) (core.Personality, error)
}

// ParticipantFactory builds a participant for a catalog definition.
type ParticipantFactory interface {
	NewParticipant(def catalog.Definition, personality core.Personality) (*agent.Participant, error)
}

// Options configures a Handler.
type Options struct {
	Commands      Commands
	Mode          orchestrator.Mode
	Timeout       time.Duration
	Capacity      int
	MaxRounds     int
	HistoryWindow int
	// Transcripts archives every discussion when it ends or expires.
	Transcripts transcript.Store
	Logger      logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler drives the discussion state machine for every session id.
type Handler struct {
	opts     Options
	registry *Registry
	catalog  Catalog
	factory  ParticipantFactory
	logger   logging.Logger
}

// NewHandler creates a handler with its own registry.
func NewHandler(cat Catalog, factory ParticipantFactory, optFns ...func(o *Options)) *Handler {
	opts := Options{
		Commands: DefaultCommands(),
		Mode:     orchestrator.ModeDebate,
		Timeout:  orchestrator.DefaultTimeout,
		Capacity: team.DefaultCapacity,
		Logger:   logging.NoOpLogger{},
		Now:      time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Commands = opts.Commands.withDefaults()
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Handler{
		opts:     opts,
		registry: NewRegistry(),
		catalog:  cat,
		factory:  factory,
		logger:   logging.WithComponent(opts.Logger, "session"),
	}
}

// Registry returns the registry holding the live sessions.
func (h *Handler) Registry() *Registry { return h.registry }

// Commands returns the effective command vocabulary.
func (h *Handler) Commands() Commands { return h.opts.Commands }

// IsActive reports whether a discussion exists for sessionID.
func (h *Handler) IsActive(sessionID string) bool {
	_, ok := h.registry.Get(sessionID)
	return ok
}

// Accepts reports whether HandleMessage would act on text, i.e. a session
// exists or text starts one.
func (h *Handler) Accepts(sessionID, text string) bool {
	if h.IsActive(sessionID) {
		return true
	}
	_, ok := h.opts.Commands.ParseTrigger(text)
	return ok
}

// HandleMessage processes one inbound message for sessionID. Messages for
// the same session are processed strictly one at a time.
//
// The returned error reports configuration problems (bad selection, unknown
// personality, capacity, round limit); guidance for the user has already been
// emitted in that case and the session is unchanged. Participant failures
// and emit failures never surface here.
func (h *Handler) HandleMessage(ctx context.Context, sessionID, text string, emit Emitter) error {
	text = strings.TrimSpace(text)

	unlock := h.registry.Lock(sessionID)
	defer unlock()

	s, ok := h.registry.Get(sessionID)
	if !ok {
		return h.start(ctx, sessionID, text, emit)
	}

	s.touch(h.opts.Now())

	if h.opts.Commands.IsEnd(text) {
		h.end(ctx, s, emit)
		return nil
	}

	switch s.State() {
	case StateSelecting:
		return h.selectParticipants(ctx, s, text, emit)
	default:
		if h.opts.Commands.IsContinue(text) {
			return h.runRound(ctx, s, "", emit)
		}
		return h.runRound(ctx, s, text, emit)
	}
}

// ExpireIdle removes sessions without activity for longer than ttl and
// returns their ids. A non-positive ttl disables expiry.
func (h *Handler) ExpireIdle(ttl time.Duration) []string {
	if ttl <= 0 {
		return nil
	}

	var expired []string
	for _, info := range h.registry.Snapshot() {
		unlock := h.registry.Lock(info.ID)
		if s, ok := h.registry.Get(info.ID); ok && s.idleSince(h.opts.Now()) > ttl {
			h.registry.Remove(info.ID)
			expired = append(expired, info.ID)
			h.logger.Info("session expired", "session_id", info.ID, "topic", info.Topic, "rounds", s.Info().RoundCount)
			h.archive(s, transcript.ReasonExpired)
		}
		unlock()
	}

	return expired
}

func (h *Handler) start(ctx context.Context, sessionID, text string, emit Emitter) error {
	topic, ok := h.opts.Commands.ParseTrigger(text)
	if !ok {
		return nil
	}

	if topic == "" {
		h.emit(ctx, emit, formatUsage(h.opts.Commands))
		return nil
	}

	defs, err := h.catalog.Definitions()
	if err != nil {
		h.emit(ctx, emit, "The participant catalog could not be loaded.")
		return fmt.Errorf("session %s: load catalog: %w", sessionID, err)
	}

	if len(defs) == 0 {
		h.emit(ctx, emit, "No participants are configured, a discussion cannot be started.")
		return fmt.Errorf("session %s: %w", sessionID, core.ErrEmptyCatalog)
	}

	t := team.New(topic, func(o *team.Options) {
		o.Capacity = h.opts.Capacity
		o.Mode = h.opts.Mode
		o.Timeout = h.opts.Timeout
		o.HistoryWindow = h.opts.HistoryWindow
		o.Logger = logging.WithSession(h.opts.Logger, sessionID)
	})

	s := newSession(sessionID, topic, t, defs, h.opts.MaxRounds, h.opts.Now())
	if err := h.registry.Insert(s); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	h.logger.Info("session created", "session_id", sessionID, "topic", topic, "candidates", len(defs))

	h.emit(ctx, emit, formatSelectionPrompt(topic, defs, h.opts.Commands))

	return nil
}

func (h *Handler) selectParticipants(ctx context.Context, s *Session, text string, emit Emitter) error {
	indices, err := h.opts.Commands.ParseSelection(text, len(s.candidates))
	if err != nil {
		h.emit(ctx, emit, formatSelectionError(err, h.opts.Commands))
		return fmt.Errorf("session %s: %w", s.id, err)
	}

	if len(indices) > s.team.Capacity() {
		h.emit(ctx, emit, fmt.Sprintf("At most %d participants can join a discussion.", s.team.Capacity()))
		return fmt.Errorf("session %s: %w: selected %d, capacity %d", s.id, core.ErrCapacityExceeded, len(indices), s.team.Capacity())
	}

	// build everything first so a failure leaves the team untouched
	participants := make([]*agent.Participant, 0, len(indices))
	for _, i := range indices {
		def := s.candidates[i]

		personality, err := h.catalog.ResolvePersonality(def)
		if err != nil {
			h.emit(ctx, emit, fmt.Sprintf("Participant %s cannot be created: %v", def.Name, err))
			return fmt.Errorf("session %s: %w", s.id, err)
		}

		p, err := h.factory.NewParticipant(def, personality)
		if err != nil {
			h.emit(ctx, emit, fmt.Sprintf("Participant %s cannot be created: %v", def.Name, err))
			return fmt.Errorf("session %s: %w", s.id, err)
		}

		participants = append(participants, p)
	}

	for i, p := range participants {
		if err := s.team.Add(p); err != nil {
			for _, added := range participants[:i] {
				s.team.Remove(added.ID())
			}
			h.emit(ctx, emit, fmt.Sprintf("Participant %s cannot join: %v", p.Name(), err))
			return fmt.Errorf("session %s: %w", s.id, err)
		}
	}

	names := lo.Map(participants, func(p *agent.Participant, _ int) string { return p.Name() })
	s.startDiscussing(names)

	h.logger.Info("participants selected", "session_id", s.id, "participants", names)

	h.emit(ctx, emit, formatStarted(names))

	return h.runRound(ctx, s, s.topic, emit)
}

func (h *Handler) runRound(ctx context.Context, s *Session, message string, emit Emitter) error {
	round, err := s.limiter.Acquire()
	if err != nil {
		h.emit(ctx, emit, formatRoundLimit(s.limiter.Max(), h.opts.Commands))
		return fmt.Errorf("session %s: %w", s.id, err)
	}

	s.setRound(round)

	results := s.team.Discuss(ctx, message, message != "", func(r orchestrator.Result) {
		h.emit(ctx, emit, formatResult(round, r))
	})

	s.addMessages(lo.CountBy(results, func(r orchestrator.Result) bool { return r.OK() }))

	h.emit(ctx, emit, formatTrailer(round, h.opts.Commands))

	return nil
}

func (h *Handler) end(ctx context.Context, s *Session, emit Emitter) {
	h.registry.Remove(s.id)

	info := s.Info()
	h.logger.Info("session ended", "session_id", s.id, "topic", info.Topic, "rounds", info.RoundCount, "messages", info.MessageCount)
	h.archive(s, transcript.ReasonEnded)

	h.emit(ctx, emit, formatSummary(info))
}

// archive hands the finished discussion to the transcript store. Sessions
// that never left selection have nothing worth keeping.
func (h *Handler) archive(s *Session, reason transcript.Reason) {
	if h.opts.Transcripts == nil {
		return
	}

	info := s.Info()
	if info.State != StateDiscussing {
		return
	}

	t, err := h.opts.Transcripts.Save(transcript.Transcript{
		SessionID:    info.ID,
		Topic:        info.Topic,
		Mode:         string(s.team.Mode()),
		Participants: info.Participants,
		Rounds:       info.RoundCount,
		Reason:       reason,
		StartedAt:    info.CreatedAt,
		EndedAt:      h.opts.Now(),
		Messages:     s.team.Log().Messages(),
	})
	if err != nil {
		h.logger.Warn("archive transcript failed", "session_id", info.ID, "error", err)
		return
	}

	h.logger.Debug("transcript archived", "session_id", info.ID, "transcript_id", t.ID)
}

func (h *Handler) emit(ctx context.Context, emit Emitter, text string) {
	if emit == nil {
		return
	}
	if err := emit(ctx, text); err != nil {
		h.logger.Warn("emit failed", "error", err)
	}
}
