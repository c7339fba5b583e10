// Package agentteam provides a high-level façade that assembles a complete
// multi-agent discussion service from a configuration: the participant
// catalog, the provider registry that turns catalog entries into model
// backed participants, and the session handler driving the chat state
// machine. Most applications interact with this package by:
//  1. Loading a config.Config (config.LoadFile)
//  2. Creating an AgentTeam via New()
//  3. Feeding chat messages to HandleMessage, or running a one-shot
//     discussion with Discuss
//
// Platform bridges (see gateway) and the status server (see server) are
// wired on top of the façade by cmd/agentteam.
package agentteam

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/config"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/orchestrator"
	"github.com/hupe1980/agentteam/provider"
	"github.com/hupe1980/agentteam/session"
	"github.com/hupe1980/agentteam/team"
	"github.com/hupe1980/agentteam/transcript"
)

// Version is the release version reported by the CLI.
var Version = "dev"

// Options configures the AgentTeam instance.
type Options struct {
	// Catalog overrides the file backed catalog described by the config.
	Catalog session.Catalog
	// Factory overrides the provider registry as participant builder.
	Factory session.ParticipantFactory
	// Transcripts overrides the transcript store described by the config.
	Transcripts transcript.Store
	// LookupEnv is used to read provider API keys (defaults to os.LookupEnv).
	LookupEnv func(key string) (string, bool)
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// AgentTeam is the high-level façade aggregating catalog, providers and the
// session handler.
type AgentTeam struct {
	cfg         *config.Config
	mode        orchestrator.Mode
	catalog     session.Catalog
	factory     session.ParticipantFactory
	providers   *provider.Registry
	transcripts transcript.Store
	handler     *session.Handler
	logger      logging.Logger
}

// New creates an AgentTeam from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, optFns ...func(o *Options)) (*AgentTeam, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}

	mode, err := orchestrator.ParseMode(cfg.Discussion.Mode)
	if err != nil {
		return nil, err
	}

	providers, err := provider.NewRegistry(func(o *provider.Options) {
		o.Providers = cfg.Providers
		o.LookupEnv = opts.LookupEnv
		o.Temperature = cfg.Discussion.Temperature
		o.MaxTokens = cfg.Discussion.MaxTokens
		o.Logger = logging.WithComponent(opts.Logger, "provider")
	})
	if err != nil {
		return nil, fmt.Errorf("agentteam: %w", err)
	}

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.New(func(o *catalog.Options) {
			o.AgentsFile = cfg.Catalog.AgentsFile
			o.PersonalitiesDir = cfg.Catalog.PersonalitiesDir
			o.Logger = logging.WithComponent(opts.Logger, "catalog")
		})
	}

	store := opts.Transcripts
	if store == nil {
		if cfg.Transcripts.Dir == "" {
			store = transcript.NewInMemoryStore()
		} else {
			fs, err := transcript.NewFileStore(cfg.Transcripts.Dir)
			if err != nil {
				return nil, fmt.Errorf("agentteam: %w", err)
			}
			store = fs
		}
	}

	var factory session.ParticipantFactory = providers
	if opts.Factory != nil {
		factory = opts.Factory
	}

	handler := session.NewHandler(cat, factory, func(o *session.Options) {
		o.Commands = cfg.Discussion.Commands
		o.Mode = mode
		o.Timeout = cfg.Discussion.Timeout
		o.Capacity = cfg.Discussion.MaxParticipants
		o.MaxRounds = cfg.Discussion.MaxRounds
		o.HistoryWindow = cfg.Discussion.HistoryWindow
		o.Transcripts = store
		o.Logger = opts.Logger
		o.Now = opts.Now
	})

	return &AgentTeam{
		cfg:         cfg,
		mode:        mode,
		catalog:     cat,
		factory:     factory,
		providers:   providers,
		transcripts: store,
		handler:     handler,
		logger:      opts.Logger,
	}, nil
}

// NewLogger builds the process logger described by the logging section.
func NewLogger(cfg config.LoggingConfig, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("agentteam: %w", err)
	}
	return logging.New(&logging.Config{Level: level, Format: cfg.Format, Output: out}), nil
}

// Config returns the configuration the instance was built from.
func (a *AgentTeam) Config() *config.Config { return a.cfg }

// Catalog returns the participant catalog.
func (a *AgentTeam) Catalog() session.Catalog { return a.catalog }

// Providers returns the provider registry.
func (a *AgentTeam) Providers() *provider.Registry { return a.providers }

// Transcripts returns the store finished discussions are archived to.
func (a *AgentTeam) Transcripts() transcript.Store { return a.transcripts }

// Handler returns the session handler, e.g. to attach a gateway bridge.
func (a *AgentTeam) Handler() *session.Handler { return a.handler }

// HandleMessage feeds one chat message of a session into the state machine.
func (a *AgentTeam) HandleMessage(ctx context.Context, sessionID, text string, emit session.Emitter) error {
	return a.handler.HandleMessage(ctx, sessionID, text, emit)
}

// IsActive reports whether a discussion is live for sessionID.
func (a *AgentTeam) IsActive(sessionID string) bool { return a.handler.IsActive(sessionID) }

// Accepts reports whether text would start or continue a session.
func (a *AgentTeam) Accepts(sessionID, text string) bool { return a.handler.Accepts(sessionID, text) }

// Sessions returns a snapshot of all live sessions, oldest first.
func (a *AgentTeam) Sessions() []session.Info { return a.handler.Registry().Snapshot() }

// ExpireIdle removes sessions idle for longer than ttl.
func (a *AgentTeam) ExpireIdle(ttl time.Duration) []string { return a.handler.ExpireIdle(ttl) }

// NewSweeper returns the idle session sweeper configured in the sweeper
// section, or nil when idle expiry is disabled.
func (a *AgentTeam) NewSweeper() (*session.Sweeper, error) {
	if a.cfg.Sweeper.IdleTimeout <= 0 {
		return nil, nil
	}
	return session.NewSweeper(a, a.cfg.Sweeper.IdleTimeout, func(o *session.SweeperOptions) {
		o.Schedule = a.cfg.Sweeper.Schedule
		o.Logger = a.logger
	})
}

// DiscussOptions configures a one-shot discussion.
type DiscussOptions struct {
	Topic string
	// Rounds is the total number of rounds; the topic is only added in the first.
	Rounds int
	// Mode overrides the configured discussion mode when set.
	Mode orchestrator.Mode
	// OnResult receives every participant turn together with its round number.
	OnResult func(round int, r orchestrator.Result)
}

// Discuss runs a discussion with every catalog participant outside of any
// chat session and returns the team, whose log holds the full history.
func (a *AgentTeam) Discuss(ctx context.Context, opts DiscussOptions) (*team.Team, error) {
	if opts.Topic == "" {
		return nil, fmt.Errorf("agentteam: topic is required")
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 1
	}
	mode := opts.Mode
	if mode == "" {
		mode = a.mode
	}

	defs, err := a.catalog.Definitions()
	if err != nil {
		return nil, fmt.Errorf("agentteam: load catalog: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("agentteam: %w", core.ErrEmptyCatalog)
	}

	t := team.New(opts.Topic, func(o *team.Options) {
		o.Capacity = max(a.cfg.Discussion.MaxParticipants, len(defs))
		o.Mode = mode
		o.Timeout = a.cfg.Discussion.Timeout
		o.HistoryWindow = a.cfg.Discussion.HistoryWindow
		o.Logger = a.logger
	})

	for _, def := range defs {
		p, err := a.participant(def)
		if err != nil {
			return nil, err
		}
		if err := t.Add(p); err != nil {
			return nil, fmt.Errorf("agentteam: %w", err)
		}
	}

	for round := 1; round <= opts.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return t, err
		}

		onResult := func(r orchestrator.Result) {
			if opts.OnResult != nil {
				opts.OnResult(round, r)
			}
		}

		if round == 1 {
			t.Discuss(ctx, opts.Topic, true, onResult)
		} else {
			t.Continue(ctx, onResult)
		}
	}

	return t, nil
}

func (a *AgentTeam) participant(def catalog.Definition) (*agent.Participant, error) {
	personality, err := a.catalog.ResolvePersonality(def)
	if err != nil {
		return nil, fmt.Errorf("agentteam: %s: %w", def.Name, err)
	}
	p, err := a.factory.NewParticipant(def, personality)
	if err != nil {
		return nil, fmt.Errorf("agentteam: %w", err)
	}
	return p, nil
}
