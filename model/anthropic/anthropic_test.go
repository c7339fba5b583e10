package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/model"
)

var _ model.Model = (*Model)(nil)

type fakeMessages struct {
	params anthropic.MessageNewParams
	resp   *anthropic.Message
	err    error
}

func (f *fakeMessages) New(_ context.Context, params anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.params = params
	return f.resp, f.err
}

func decodeMessage(t *testing.T, raw string) *anthropic.Message {
	t.Helper()
	var msg anthropic.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func collect(respCh <-chan model.Response, errCh <-chan error) ([]model.Response, error) {
	var out []model.Response
	for r := range respCh {
		out = append(out, r)
	}
	return out, <-errCh
}

func TestGenerate(t *testing.T) {
	fake := &fakeMessages{resp: decodeMessage(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-sonnet-20241022",
		"content": [{"type": "text", "text": "I agree."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 3}
	}`)}

	m := &Model{messages: fake, opts: defaultOptions()}

	resps, err := collect(m.Generate(context.Background(), model.Request{
		Instructions: "You are a critic.",
		Messages: []core.ViewMessage{
			{Role: core.RoleUser, Content: "topic"},
			{Role: core.RoleUser, Content: "[Bob]: hi"},
		},
	}))
	require.NoError(t, err)
	require.Len(t, resps, 1)
	assert.Equal(t, "I agree.", resps[0].Content)
	assert.Equal(t, "end_turn", resps[0].FinishReason)
	assert.Equal(t, 13, resps[0].Usage.TotalTokens)

	require.Len(t, fake.params.System, 1)
	assert.Equal(t, "You are a critic.", fake.params.System[0].Text)
	assert.Len(t, fake.params.Messages, 2)
}

func TestGenerate_Error(t *testing.T) {
	fake := &fakeMessages{err: errors.New("overloaded")}
	m := &Model{messages: fake, opts: defaultOptions()}

	resps, err := collect(m.Generate(context.Background(), model.Request{
		Messages: []core.ViewMessage{{Role: core.RoleUser, Content: "topic"}},
	}))
	assert.Empty(t, resps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic api error")
}

func TestBuildMessages(t *testing.T) {
	t.Run("ends on assistant", func(t *testing.T) {
		msgs := buildMessages([]core.ViewMessage{
			{Role: core.RoleUser, Content: "topic"},
			{Role: core.RoleAssistant, Content: "my take"},
		})
		require.Len(t, msgs, 3)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	})

	t.Run("starts on assistant", func(t *testing.T) {
		msgs := buildMessages([]core.ViewMessage{
			{Role: core.RoleAssistant, Content: "my take"},
			{Role: core.RoleUser, Content: "[Bob]: disagree"},
		})
		require.Len(t, msgs, 3)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	})

	t.Run("starts on assistant after skipped empty message", func(t *testing.T) {
		msgs := buildMessages([]core.ViewMessage{
			{Role: core.RoleUser, Content: ""},
			{Role: core.RoleAssistant, Content: "my take"},
		})
		require.Len(t, msgs, 3)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	})

	t.Run("empty", func(t *testing.T) {
		msgs := buildMessages(nil)
		require.Len(t, msgs, 1)
		assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	})
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "claude-3-5-haiku-latest"
		o.APIKey = "test"
		o.BaseURL = "http://localhost:9999"
	})
	assert.Equal(t, model.Info{Name: "claude-3-5-haiku-latest", Provider: "anthropic"}, m.Info())
}
