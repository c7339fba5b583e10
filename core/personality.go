package core

import "strings"

// Default personality used when a definition does not specify one.
const (
	DefaultPersonalityName   = "Assistant"
	DefaultSystemPrompt      = "You are a helpful assistant."
	defaultResponseStyleHint = "Response style: "
)

// Personality describes how a participant should behave.
type Personality struct {
	Name          string `json:"name" yaml:"name"`
	SystemPrompt  string `json:"system_prompt" yaml:"system_prompt"`
	ResponseStyle string `json:"response_style,omitempty" yaml:"response_style,omitempty"`
}

// DefaultPersonality returns the fallback personality.
func DefaultPersonality() Personality {
	return Personality{Name: DefaultPersonalityName, SystemPrompt: DefaultSystemPrompt}
}

// Instruction renders the personality as a system instruction.
func (p Personality) Instruction() string {
	prompt := strings.TrimSpace(p.SystemPrompt)
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	style := strings.TrimSpace(p.ResponseStyle)
	if style == "" {
		return prompt
	}

	return prompt + "\n\n" + defaultResponseStyleHint + style
}
