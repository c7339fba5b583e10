// Package provider turns provider ids from the catalog into concrete
// model.Model instances.
//
// Every id is mapped through the closed provider table of the model package:
// Anthropic ids get the Anthropic adapter, everything else is served by the
// OpenAI compatible adapter pointed at the provider's base URL. API keys come
// from the provider's environment variable first and fall back to the
// configured key.
package provider

import (
	"fmt"
	"os"
	"slices"

	"github.com/samber/lo"

	"github.com/hupe1980/agentteam/agent"
	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/model"
	"github.com/hupe1980/agentteam/model/anthropic"
	"github.com/hupe1980/agentteam/model/openai"
)

// localAPIKey is sent to keyless local providers so the OpenAI client does
// not pick up OPENAI_API_KEY from the environment.
const localAPIKey = "local"

// Config is the user supplied configuration of one provider id.
type Config struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	APIURL  string `mapstructure:"api_url" yaml:"api_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
}

// Binding is a fully resolved provider endpoint.
type Binding struct {
	Spec    model.ProviderSpec
	BaseURL string
	APIKey  string
}

// Options configures a Registry.
type Options struct {
	Providers map[string]Config
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv   func(key string) (string, bool)
	Temperature float64
	MaxTokens   int64
	Logger      logging.Logger
}

// Registry resolves provider bindings and builds models and participants.
type Registry struct {
	opts Options
}

// NewRegistry creates a registry. It fails for configured provider ids that
// are not part of the provider table.
func NewRegistry(optFns ...func(o *Options)) (*Registry, error) {
	opts := Options{
		Providers:   map[string]Config{},
		LookupEnv:   os.LookupEnv,
		Temperature: 0.7,
		MaxTokens:   4096,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if err := ValidateConfigs(opts.Providers); err != nil {
		return nil, err
	}

	return &Registry{opts: opts}, nil
}

// ValidateConfigs rejects configuration for unknown provider ids.
func ValidateConfigs(configs map[string]Config) error {
	unknown := lo.Filter(lo.Keys(configs), func(id string, _ int) bool {
		_, ok := model.LookupProvider(id)
		return !ok
	})
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("provider: %w: %v", core.ErrUnknownProvider, unknown)
}

// Resolve returns the endpoint and credentials for a provider id.
func (r *Registry) Resolve(id string) (Binding, error) {
	spec, err := model.ParseProvider(id)
	if err != nil {
		return Binding{}, err
	}

	b := Binding{Spec: spec, BaseURL: spec.DefaultBaseURL}

	if spec.APIKeyEnv != "" {
		if v, ok := r.opts.LookupEnv(spec.APIKeyEnv); ok && v != "" {
			b.APIKey = v
		}
	}

	if cfg, ok := r.opts.Providers[spec.ID]; ok && cfg.Enabled {
		if cfg.APIURL != "" {
			b.BaseURL = cfg.APIURL
		}
		if b.APIKey == "" {
			b.APIKey = cfg.APIKey
		}
	}

	return b, nil
}

// NewModel builds the model adapter for a provider id and model name.
func (r *Registry) NewModel(providerID, modelName string) (model.Model, error) {
	b, err := r.Resolve(providerID)
	if err != nil {
		return nil, err
	}

	apiKey := b.APIKey
	if apiKey == "" {
		if b.Spec.RequiresAPIKey() {
			r.opts.Logger.Warn("provider has no api key", "provider", b.Spec.ID, "env", b.Spec.APIKeyEnv)
		} else {
			apiKey = localAPIKey
		}
	}

	switch b.Spec.Kind {
	case model.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = modelName
			o.APIKey = apiKey
			o.BaseURL = b.BaseURL
			o.Temperature = r.opts.Temperature
			o.MaxTokens = r.opts.MaxTokens
		}), nil
	case model.ProviderOpenAICompatible, model.ProviderCustom:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = modelName
			o.APIKey = apiKey
			o.BaseURL = b.BaseURL
			o.Provider = b.Spec.ID
			o.Temperature = r.opts.Temperature
			o.MaxCompletionTokens = r.opts.MaxTokens
		}), nil
	default:
		return nil, fmt.Errorf("provider: %w: kind %s", core.ErrUnknownProvider, b.Spec.Kind)
	}
}

// NewParticipant builds a participant for a catalog definition.
func (r *Registry) NewParticipant(def catalog.Definition, personality core.Personality) (*agent.Participant, error) {
	m, err := r.NewModel(def.ProviderID, def.ModelName)
	if err != nil {
		return nil, fmt.Errorf("participant %s: %w", def.Name, err)
	}

	return agent.NewParticipant(def.Name, m, func(o *agent.Options) {
		o.ProviderID = def.ProviderID
		o.ModelName = def.ModelName
		o.Personality = personality
	}), nil
}
