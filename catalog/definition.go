package catalog

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		_, ok := model.LookupProvider(fl.Field().String())
		return ok
	})
	return v
}

// Definition describes one selectable participant.
type Definition struct {
	Name        string         `yaml:"name" json:"name" validate:"required"`
	ProviderID  string         `yaml:"provider_id" json:"provider_id" validate:"required,provider"`
	ModelName   string         `yaml:"model_name" json:"model_name" validate:"required"`
	Personality PersonalityRef `yaml:"personality" json:"personality"`
}

// PersonalityRef is either the name of a personality template or an inline
// personality. The zero value selects the default personality.
type PersonalityRef struct {
	Template string
	Inline   *core.Personality
}

// Label returns a short human readable description of the reference.
func (r PersonalityRef) Label() string {
	switch {
	case r.Template != "":
		return r.Template
	case r.Inline != nil && r.Inline.Name != "":
		return r.Inline.Name
	case r.Inline != nil:
		return "custom"
	default:
		return core.DefaultPersonalityName
	}
}

// UnmarshalYAML accepts a scalar template name or an inline mapping.
func (r *PersonalityRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Template = value.Value
		r.Inline = nil
		return nil
	case yaml.MappingNode:
		var p core.Personality
		if err := value.Decode(&p); err != nil {
			return err
		}
		r.Template = ""
		r.Inline = &p
		return nil
	default:
		return fmt.Errorf("personality: expected template name or mapping, got %s", nodeKind(value.Kind))
	}
}

// MarshalYAML mirrors UnmarshalYAML.
func (r PersonalityRef) MarshalYAML() (any, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return r.Template, nil
}

func nodeKind(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown"
	}
}

type definitionsFile struct {
	Agents []Definition `yaml:"agents"`
}

// ParseDefinitions decodes and validates an agents document. An empty
// document yields no definitions.
func ParseDefinitions(data []byte) ([]Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var f definitionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode definitions: %w", err)
	}

	seen := make(map[string]int, len(f.Agents))
	for i, def := range f.Agents {
		if err := Validate(def); err != nil {
			return nil, fmt.Errorf("catalog: agents[%d] (%s): %w", i, def.Name, err)
		}
		if first, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("catalog: agents[%d]: name %q already used by agents[%d]", i, def.Name, first)
		}
		seen[def.Name] = i
	}

	return f.Agents, nil
}

// Validate checks a definition for required fields and a known provider id.
func Validate(def Definition) error {
	return validate.Struct(def)
}

// ParsePersonality decodes a personality template document.
func ParsePersonality(data []byte) (core.Personality, error) {
	var p core.Personality
	if err := yaml.Unmarshal(data, &p); err != nil {
		return core.Personality{}, fmt.Errorf("catalog: decode personality: %w", err)
	}
	return p, nil
}
