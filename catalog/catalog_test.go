package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentteam/core"
)

const agentsYAML = `
agents:
  - name: Architect
    provider_id: deepseek
    model_name: deepseek-chat
    personality: professional
  - name: Skeptic
    provider_id: anthropic
    model_name: claude-3-5-haiku-latest
    personality:
      name: Skeptic
      system_prompt: Question every assumption.
      response_style: blunt
  - name: Plain
    provider_id: ollama
    model_name: llama3
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParseDefinitions(t *testing.T) {
	defs, err := ParseDefinitions([]byte(agentsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "Architect", defs[0].Name)
	assert.Equal(t, "professional", defs[0].Personality.Template)
	assert.Nil(t, defs[0].Personality.Inline)

	require.NotNil(t, defs[1].Personality.Inline)
	assert.Equal(t, "Question every assumption.", defs[1].Personality.Inline.SystemPrompt)
	assert.Equal(t, "blunt", defs[1].Personality.Inline.ResponseStyle)

	assert.Equal(t, PersonalityRef{}, defs[2].Personality)
}

func TestParseDefinitions_Empty(t *testing.T) {
	defs, err := ParseDefinitions([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestParseDefinitions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown provider", yaml: "agents:\n  - {name: A, provider_id: gemini, model_name: x}\n"},
		{name: "missing model", yaml: "agents:\n  - {name: A, provider_id: openai}\n"},
		{name: "missing name", yaml: "agents:\n  - {provider_id: openai, model_name: x}\n"},
		{name: "sequence personality", yaml: "agents:\n  - {name: A, provider_id: openai, model_name: x, personality: [a]}\n"},
		{name: "malformed", yaml: "agents: [\n"},
		{name: "duplicate name", yaml: "agents:\n  - {name: A, provider_id: openai, model_name: x}\n  - {name: A, provider_id: deepseek, model_name: y}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_LoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.yaml")
	personalities := filepath.Join(dir, "personalities")

	writeFile(t, agents, agentsYAML)
	writeFile(t, filepath.Join(personalities, "professional.yaml"), "name: Professional\nsystem_prompt: Be precise.\n")
	writeFile(t, filepath.Join(personalities, "casual.yml"), "name: Casual\nsystem_prompt: Be relaxed.\n")
	writeFile(t, filepath.Join(personalities, "README.md"), "ignored")

	c := New(func(o *Options) {
		o.AgentsFile = agents
		o.PersonalitiesDir = personalities
	})

	defs, err := c.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 3)

	names, err := c.Templates()
	require.NoError(t, err)
	assert.Equal(t, []string{"casual", "professional"}, names)

	p, err := c.ResolvePersonality(defs[0])
	require.NoError(t, err)
	assert.Equal(t, core.Personality{Name: "Professional", SystemPrompt: "Be precise."}, p)

	p, err = c.ResolvePersonality(defs[1])
	require.NoError(t, err)
	assert.Equal(t, "Skeptic", p.Name)

	p, err = c.ResolvePersonality(defs[2])
	require.NoError(t, err)
	assert.Equal(t, core.DefaultPersonality(), p)
}

func TestCatalog_UnknownTemplateListsAvailable(t *testing.T) {
	c := NewStatic(nil, map[string]core.Personality{
		"casual":       {Name: "Casual", SystemPrompt: "x"},
		"professional": {Name: "Professional", SystemPrompt: "y"},
	})

	_, err := c.ResolvePersonality(Definition{Personality: PersonalityRef{Template: "pirate"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownPersonality)
	assert.Contains(t, err.Error(), "casual, professional")
}

func TestCatalog_CachesUntilReload(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.yaml")
	writeFile(t, agents, "agents:\n  - {name: A, provider_id: openai, model_name: gpt-4o-mini}\n")

	c := New(func(o *Options) {
		o.AgentsFile = agents
		o.PersonalitiesDir = filepath.Join(dir, "missing")
	})

	defs, err := c.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 1)

	writeFile(t, agents, "agents:\n  - {name: A, provider_id: openai, model_name: gpt-4o-mini}\n  - {name: B, provider_id: openai, model_name: gpt-4o}\n")

	defs, err = c.Definitions()
	require.NoError(t, err)
	assert.Len(t, defs, 1)

	c.Reload()

	defs, err = c.Definitions()
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestCatalog_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	c := New(func(o *Options) {
		o.AgentsFile = filepath.Join(dir, "nope.yaml")
		o.PersonalitiesDir = filepath.Join(dir, "nope")
	})

	defs, err := c.Definitions()
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestCatalog_InvalidFileNotCached(t *testing.T) {
	dir := t.TempDir()
	agents := filepath.Join(dir, "agents.yaml")
	writeFile(t, agents, "agents:\n  - {name: A, provider_id: nope, model_name: x}\n")

	c := New(func(o *Options) {
		o.AgentsFile = agents
		o.PersonalitiesDir = filepath.Join(dir, "personalities")
	})

	_, err := c.Definitions()
	require.Error(t, err)

	writeFile(t, agents, "agents:\n  - {name: A, provider_id: openai, model_name: x}\n")

	defs, err := c.Definitions()
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestFormat(t *testing.T) {
	defs, err := ParseDefinitions([]byte(agentsYAML))
	require.NoError(t, err)

	assert.Equal(t,
		"1. Architect (deepseek/deepseek-chat, professional)\n"+
			"2. Skeptic (anthropic/claude-3-5-haiku-latest, Skeptic)\n"+
			"3. Plain (ollama/llama3, Assistant)",
		Format(defs))
}

func TestCatalog_SampleConfig(t *testing.T) {
	c := New(func(o *Options) {
		o.AgentsFile = filepath.Join("..", DefaultAgentsFile)
		o.PersonalitiesDir = filepath.Join("..", DefaultPersonalitiesDir)
	})

	defs, err := c.Definitions()
	require.NoError(t, err)
	require.Len(t, defs, 4)

	for _, def := range defs {
		p, err := c.ResolvePersonality(def)
		require.NoError(t, err, def.Name)
		assert.NotEmpty(t, p.SystemPrompt, def.Name)
	}

	templates, err := c.Templates()
	require.NoError(t, err)
	assert.Equal(t, []string{"analyst", "optimist", "skeptic"}, templates)
}
