package agent

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/model"
)

// Options configures a Participant.
type Options struct {
	// ID overrides the generated identity. Mostly useful in tests.
	ID          string
	ProviderID  string
	ModelName   string
	Personality core.Personality
	// Inactive creates the participant deactivated.
	Inactive bool
}

// Participant is one discussion member bound to a model. All exported
// methods are goroutine-safe.
type Participant struct {
	id          string
	name        string
	providerID  string
	modelName   string
	personality core.Personality
	model       model.Model
	active      atomic.Bool
}

// NewParticipant creates an active participant with a fresh identity.
func NewParticipant(name string, m model.Model, optFns ...func(o *Options)) *Participant {
	opts := Options{
		Personality: core.DefaultPersonality(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = core.NewID()
	}

	info := m.Info()
	if opts.ProviderID == "" {
		opts.ProviderID = info.Provider
	}
	if opts.ModelName == "" {
		opts.ModelName = info.Name
	}

	p := &Participant{
		id:          opts.ID,
		name:        name,
		providerID:  opts.ProviderID,
		modelName:   opts.ModelName,
		personality: opts.Personality,
		model:       m,
	}
	p.active.Store(!opts.Inactive)

	return p
}

// ID returns the participant identity, unique within a team.
func (p *Participant) ID() string { return p.id }

// Name returns the display name used for attribution in the log.
func (p *Participant) Name() string { return p.name }

// ProviderID returns the external provider id the participant talks to.
func (p *Participant) ProviderID() string { return p.providerID }

// ModelName returns the provider specific model name.
func (p *Participant) ModelName() string { return p.modelName }

// Personality returns the participant personality.
func (p *Participant) Personality() core.Personality { return p.personality }

// IsActive reports whether the participant takes part in rounds.
func (p *Participant) IsActive() bool { return p.active.Load() }

// Activate includes the participant in subsequent rounds. Idempotent.
func (p *Participant) Activate() { p.active.Store(true) }

// Deactivate excludes the participant from subsequent rounds. Idempotent.
func (p *Participant) Deactivate() { p.active.Store(false) }

// Respond produces the participant's reply to a rendered view. It returns as
// soon as ctx is done even if the underlying model keeps running.
func (p *Participant) Respond(ctx context.Context, view []core.ViewMessage) (string, error) {
	req := model.Request{
		Instructions: p.personality.Instruction(),
		Messages:     slices.Clone(view),
	}

	respCh, errCh := p.model.Generate(ctx, req)

	var (
		content string
		got     bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			content, got = resp.Content, true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return "", err
			}
		}
	}

	if !got {
		return "", core.ErrNoResponse
	}

	return content, nil
}
