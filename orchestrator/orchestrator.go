// Package orchestrator runs discussion rounds over a shared conversation log.
//
// Two protocols are supported. In concurrent mode every active participant
// answers the same pre-round snapshot of the log and the successful replies
// are appended in participant order once all calls have settled. In debate
// mode participants speak one after another and each one sees everything
// said earlier in the same round.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/memory"
)

// DefaultTimeout bounds a single participant call.
const DefaultTimeout = 30 * time.Second

// Mode selects the round protocol.
type Mode string

const (
	// ModeConcurrent fans out to all participants against a fixed snapshot.
	ModeConcurrent Mode = "concurrent"
	// ModeDebate lets participants speak serially, each seeing prior replies.
	ModeDebate Mode = "debate"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeConcurrent:
		return ModeConcurrent, nil
	case ModeDebate:
		return ModeDebate, nil
	default:
		return "", fmt.Errorf("orchestrator: unknown discussion mode %q (want %q or %q)", s, ModeConcurrent, ModeDebate)
	}
}

// Outcome classifies a single participant turn.
type Outcome int

const (
	// OutcomeSuccess means the reply was appended to the log.
	OutcomeSuccess Outcome = iota
	// OutcomeTimeout means the call did not finish within the timeout.
	OutcomeTimeout
	// OutcomeFailed means the call returned an error.
	OutcomeFailed
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one participant turn.
type Result struct {
	ParticipantID   string
	ParticipantName string
	Content         string
	Outcome         Outcome
	Err             error
	Duration        time.Duration
}

// OK reports whether the turn produced a reply.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }

// Round describes one discussion round.
type Round struct {
	Log          *memory.Log
	Participants []*agent.Participant
	// UserMessage is appended before the round starts. Empty means the round
	// continues the discussion without new human input.
	UserMessage string
	// OnResult is called for every participant turn. Debate mode calls it as
	// soon as a turn finishes, concurrent mode after the whole round settled.
	// Both call it in participant order.
	OnResult func(Result)
}

// Options configures an Orchestrator.
type Options struct {
	Mode    Mode
	Timeout time.Duration
	Logger  logging.Logger
}

// Orchestrator executes rounds. It holds no per-round state and may be
// shared, but rounds on the same log must not overlap.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator. Defaults: debate mode and DefaultTimeout.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Mode:    ModeDebate,
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Mode == "" {
		opts.Mode = ModeDebate
	}

	return &Orchestrator{opts: opts}
}

// Mode returns the configured protocol.
func (o *Orchestrator) Mode() Mode { return o.opts.Mode }

// Timeout returns the per-participant call timeout.
func (o *Orchestrator) Timeout() time.Duration { return o.opts.Timeout }

// Run executes one round and returns one result per active participant in
// participant order. Participant failures are reported through the results,
// never as an error or panic.
func (o *Orchestrator) Run(ctx context.Context, round Round) []Result {
	start := time.Now()

	if round.UserMessage != "" {
		round.Log.AppendUser(round.UserMessage)
	}

	active := lo.Filter(round.Participants, func(p *agent.Participant, _ int) bool {
		return p.IsActive()
	})

	if round.OnResult == nil {
		round.OnResult = func(Result) {}
	}

	var results []Result
	switch o.opts.Mode {
	case ModeConcurrent:
		results = o.runConcurrent(ctx, round, active)
	default:
		results = o.runDebate(ctx, round, active)
	}

	succeeded := lo.CountBy(results, func(r Result) bool { return r.OK() })
	logging.LogRound(o.opts.Logger, string(o.opts.Mode), len(results), succeeded, time.Since(start))

	return results
}

// call runs a single participant turn under the configured timeout.
func (o *Orchestrator) call(ctx context.Context, p *agent.Participant, view []core.ViewMessage) (res Result) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	start := time.Now()
	res = Result{ParticipantID: p.ID(), ParticipantName: p.Name()}

	defer func() {
		if r := recover(); r != nil {
			res.Content = ""
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("participant %s panicked: %v", p.Name(), r)
		}
		res.Duration = time.Since(start)
		logging.LogParticipantCall(o.opts.Logger, p.Name(), p.ModelName(), res.Duration, res.Outcome.String(), res.Err)
	}()

	content, err := p.Respond(callCtx, view)
	switch {
	case err == nil:
		res.Content = content
		res.Outcome = OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.Err = fmt.Errorf("participant %s timed out after %s: %w", p.Name(), o.opts.Timeout, context.DeadlineExceeded)
	default:
		res.Outcome = OutcomeFailed
		res.Err = err
	}

	return res
}
