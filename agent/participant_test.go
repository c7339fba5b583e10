package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/model"
)

// silentModel closes both channels without producing a response.
type silentModel struct{}

func (silentModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	respCh := make(chan model.Response)
	errCh := make(chan error)
	close(respCh)
	close(errCh)
	return respCh, errCh
}

func (silentModel) Info() model.Info { return model.Info{Name: "silent", Provider: "test"} }

// hangingModel never answers and never closes its channels.
type hangingModel struct{}

func (hangingModel) Generate(context.Context, model.Request) (<-chan model.Response, <-chan error) {
	return make(chan model.Response), make(chan error)
}

func (hangingModel) Info() model.Info { return model.Info{Name: "hang", Provider: "test"} }

func TestNewParticipant_Defaults(t *testing.T) {
	m := model.NewMockModel("gpt-4o-mini", "openai")
	p := NewParticipant("Alice", m)

	assert.NotEmpty(t, p.ID())
	assert.Equal(t, "Alice", p.Name())
	assert.Equal(t, "openai", p.ProviderID())
	assert.Equal(t, "gpt-4o-mini", p.ModelName())
	assert.Equal(t, core.DefaultPersonality(), p.Personality())
	assert.True(t, p.IsActive())

	other := NewParticipant("Alice", m)
	assert.NotEqual(t, p.ID(), other.ID())
}

func TestNewParticipant_Options(t *testing.T) {
	p := NewParticipant("Bob", model.NewMockModel("m", "x"), func(o *Options) {
		o.ID = "p-1"
		o.ProviderID = "deepseek"
		o.ModelName = "deepseek-chat"
		o.Personality = core.Personality{Name: "Skeptic", SystemPrompt: "Doubt everything."}
		o.Inactive = true
	})

	assert.Equal(t, "p-1", p.ID())
	assert.Equal(t, "deepseek", p.ProviderID())
	assert.Equal(t, "deepseek-chat", p.ModelName())
	assert.Equal(t, "Skeptic", p.Personality().Name)
	assert.False(t, p.IsActive())
}

func TestParticipant_ActivationIdempotent(t *testing.T) {
	p := NewParticipant("Alice", model.NewMockModel("m", "x"))

	p.Deactivate()
	p.Deactivate()
	assert.False(t, p.IsActive())

	p.Activate()
	p.Activate()
	assert.True(t, p.IsActive())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				p.Activate()
			} else {
				p.Deactivate()
			}
		}(i)
	}
	wg.Wait()
}

func TestParticipant_Respond(t *testing.T) {
	m := model.NewMockModel("m", "x")
	m.AddResponse("[Bob]: hello", "hi Bob")

	p := NewParticipant("Alice", m, func(o *Options) {
		o.Personality = core.Personality{Name: "Friendly", SystemPrompt: "Be kind.", ResponseStyle: "short"}
	})

	view := []core.ViewMessage{
		{Role: core.RoleUser, Content: "topic"},
		{Role: core.RoleUser, Content: "[Bob]: hello"},
	}

	out, err := p.Respond(context.Background(), view)
	require.NoError(t, err)
	assert.Equal(t, "hi Bob", out)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Be kind.\n\nResponse style: short", calls[0].Instructions)
	assert.Equal(t, view, calls[0].Messages)
}

func TestParticipant_RespondError(t *testing.T) {
	m := model.NewMockModel("m", "x")
	m.SetError(errors.New("rate limited"))

	_, err := NewParticipant("Alice", m).Respond(context.Background(), []core.ViewMessage{{Content: "x"}})
	assert.EqualError(t, err, "rate limited")
}

func TestParticipant_RespondNoResponse(t *testing.T) {
	_, err := NewParticipant("Alice", silentModel{}).Respond(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrNoResponse)
}

func TestParticipant_RespondHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewParticipant("Alice", hangingModel{}).Respond(ctx, nil)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
