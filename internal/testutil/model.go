package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/model"
)

// ReplyFunc computes a model reply from the rendered view a participant received.
type ReplyFunc func(ctx context.Context, view []core.ViewMessage) (string, error)

// FuncModel is a model.Model driven by a ReplyFunc. It records every request.
type FuncModel struct {
	name  string
	reply ReplyFunc

	mu       sync.Mutex
	requests []model.Request
}

// NewFuncModel creates a FuncModel.
func NewFuncModel(name string, reply ReplyFunc) *FuncModel {
	return &FuncModel{name: name, reply: reply}
}

// Generate implements model.Model.
func (m *FuncModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	respCh := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		out, err := m.reply(ctx, req.Messages)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- model.Response{Content: out, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements model.Model.
func (m *FuncModel) Info() model.Info { return model.Info{Name: m.name, Provider: "test"} }

// Requests returns the requests received so far.
func (m *FuncModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Request(nil), m.requests...)
}

// Reply returns a ReplyFunc that always answers text.
func Reply(text string) ReplyFunc {
	return func(context.Context, []core.ViewMessage) (string, error) { return text, nil }
}

// Fail returns a ReplyFunc that always fails with err.
func Fail(err error) ReplyFunc {
	return func(context.Context, []core.ViewMessage) (string, error) { return "", err }
}

// Hang returns a ReplyFunc that blocks until ctx is done.
func Hang() ReplyFunc {
	return func(ctx context.Context, _ []core.ViewMessage) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

// Participant creates an active participant named name answering with reply.
// The participant id is "id-"+name so it matches LogBuilder attribution.
func Participant(name string, reply ReplyFunc) (*agent.Participant, *FuncModel) {
	m := NewFuncModel(name+"-model", reply)
	p := agent.NewParticipant(name, m, func(o *agent.Options) {
		o.ID = "id-" + name
	})
	return p, m
}
