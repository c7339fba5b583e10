package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/agentteam/core"
)

// ProviderKind is the closed set of wire protocols a participant can talk.
type ProviderKind int

const (
	// ProviderAnthropic speaks the Anthropic Messages API.
	ProviderAnthropic ProviderKind = iota + 1
	// ProviderOpenAICompatible speaks the OpenAI Chat Completions API.
	ProviderOpenAICompatible
	// ProviderCustom is a self-hosted OpenAI compatible endpoint.
	ProviderCustom
)

// String returns the string representation of the provider kind.
func (k ProviderKind) String() string {
	switch k {
	case ProviderAnthropic:
		return "anthropic"
	case ProviderOpenAICompatible:
		return "openai-compatible"
	case ProviderCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ProviderSpec describes one external provider id.
type ProviderSpec struct {
	ID             string
	Kind           ProviderKind
	DefaultBaseURL string
	// APIKeyEnv names the environment variable holding the key. Empty means
	// the provider does not require one.
	APIKeyEnv string
}

// RequiresAPIKey reports whether calls need an API key.
func (s ProviderSpec) RequiresAPIKey() bool { return s.APIKeyEnv != "" }

var providers = map[string]ProviderSpec{
	"anthropic": {ID: "anthropic", Kind: ProviderAnthropic, DefaultBaseURL: "https://api.anthropic.com", APIKeyEnv: "ANTHROPIC_API_KEY"},
	"openai":    {ID: "openai", Kind: ProviderOpenAICompatible, DefaultBaseURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY"},
	"deepseek":  {ID: "deepseek", Kind: ProviderOpenAICompatible, DefaultBaseURL: "https://api.deepseek.com/v1", APIKeyEnv: "DEEPSEEK_API_KEY"},
	"bigmodel":  {ID: "bigmodel", Kind: ProviderOpenAICompatible, DefaultBaseURL: "https://open.bigmodel.cn/api/paas/v4", APIKeyEnv: "BIGMODEL_API_KEY"},
	"minimax":   {ID: "minimax", Kind: ProviderOpenAICompatible, DefaultBaseURL: "https://api.minimax.chat/v1", APIKeyEnv: "MINIMAX_API_KEY"},
	"ollama":    {ID: "ollama", Kind: ProviderOpenAICompatible, DefaultBaseURL: "http://localhost:11434/v1"},
	"lmstudio":  {ID: "lmstudio", Kind: ProviderOpenAICompatible, DefaultBaseURL: "http://127.0.0.1:1234/v1"},
	"custom":    {ID: "custom", Kind: ProviderCustom, DefaultBaseURL: "http://localhost:8000/v1", APIKeyEnv: "CUSTOM_API_KEY"},
}

// LookupProvider returns the spec for a provider id. IDs are case insensitive.
func LookupProvider(id string) (ProviderSpec, bool) {
	spec, ok := providers[strings.ToLower(strings.TrimSpace(id))]
	return spec, ok
}

// ParseProvider is LookupProvider returning core.ErrUnknownProvider for ids
// outside the table.
func ParseProvider(id string) (ProviderSpec, error) {
	spec, ok := LookupProvider(id)
	if !ok {
		return ProviderSpec{}, fmt.Errorf("%w: %q (known: %s)", core.ErrUnknownProvider, id, strings.Join(ProviderIDs(), ", "))
	}
	return spec, nil
}

// ProviderIDs returns all known provider ids in sorted order.
func ProviderIDs() []string {
	ids := make([]string, 0, len(providers))
	for id := range providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
