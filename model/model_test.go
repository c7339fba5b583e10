package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
)

var _ Model = (*MockModel)(nil)

func drain(t *testing.T, respCh <-chan Response, errCh <-chan error) (Response, error) {
	t.Helper()

	var (
		resp Response
		err  error
	)
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			resp = r
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			err = e
		}
	}
	return resp, err
}

func TestMockModel_DefaultAndCanned(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("hello", "world")

	respCh, errCh := m.Generate(context.Background(), Request{Messages: []core.ViewMessage{{Role: core.RoleUser, Content: "hello"}}})
	resp, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "world", resp.Content)

	respCh, errCh = m.Generate(context.Background(), Request{Messages: []core.ViewMessage{{Role: core.RoleUser, Content: "other"}}})
	resp, err = drain(t, respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Content)

	assert.Len(t, m.Calls(), 2)
	assert.Equal(t, Info{Name: "mock", Provider: "test"}, m.Info())
}

func TestMockModel_Error(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.SetError(errors.New("boom"))

	respCh, errCh := m.Generate(context.Background(), Request{Messages: []core.ViewMessage{{Content: "x"}}})
	_, err := drain(t, respCh, errCh)
	assert.EqualError(t, err, "boom")
}

func TestMockModel_DelayHonoursContext(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.SetDelay(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	respCh, errCh := m.Generate(ctx, Request{Messages: []core.ViewMessage{{Content: "x"}}})
	_, err := drain(t, respCh, errCh)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLookupProvider(t *testing.T) {
	tests := []struct {
		id   string
		kind ProviderKind
		url  string
	}{
		{id: "anthropic", kind: ProviderAnthropic, url: "https://api.anthropic.com"},
		{id: "openai", kind: ProviderOpenAICompatible, url: "https://api.openai.com/v1"},
		{id: "deepseek", kind: ProviderOpenAICompatible, url: "https://api.deepseek.com/v1"},
		{id: "bigmodel", kind: ProviderOpenAICompatible, url: "https://open.bigmodel.cn/api/paas/v4"},
		{id: "minimax", kind: ProviderOpenAICompatible, url: "https://api.minimax.chat/v1"},
		{id: "ollama", kind: ProviderOpenAICompatible, url: "http://localhost:11434/v1"},
		{id: "lmstudio", kind: ProviderOpenAICompatible, url: "http://127.0.0.1:1234/v1"},
		{id: "custom", kind: ProviderCustom, url: "http://localhost:8000/v1"},
		{id: " DeepSeek ", kind: ProviderOpenAICompatible, url: "https://api.deepseek.com/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			spec, ok := LookupProvider(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.url, spec.DefaultBaseURL)
		})
	}
}

func TestParseProvider_Unknown(t *testing.T) {
	_, err := ParseProvider("gemini")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownProvider)
	assert.Contains(t, err.Error(), "anthropic")
}

func TestProviderSpec_RequiresAPIKey(t *testing.T) {
	ollama, _ := LookupProvider("ollama")
	assert.False(t, ollama.RequiresAPIKey())

	openai, _ := LookupProvider("openai")
	assert.True(t, openai.RequiresAPIKey())
	assert.Equal(t, "OPENAI_API_KEY", openai.APIKeyEnv)
}

func TestProviderIDs(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "bigmodel", "custom", "deepseek", "lmstudio", "minimax", "ollama", "openai"}, ProviderIDs())
}
