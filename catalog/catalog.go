// Package catalog loads the participant definitions a discussion can be
// staffed from, together with the reusable personality templates they refer
// to.
//
// The agents file is a YAML document with an "agents" list. Each entry names
// a provider id, a model and a personality, which is either the stem of a
// file in the personalities directory or an inline mapping:
//
//	agents:
//	  - name: Architect
//	    provider_id: deepseek
//	    model_name: deepseek-chat
//	    personality: professional
//	  - name: Skeptic
//	    provider_id: anthropic
//	    model_name: claude-3-5-haiku-latest
//	    personality:
//	      name: Skeptic
//	      system_prompt: Question every assumption.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/agentteam/core"
	"github.com/hupe1980/agentteam/logging"
)

// Default file locations, relative to the working directory.
const (
	DefaultAgentsFile       = "config/agents.yaml"
	DefaultPersonalitiesDir = "config/personalities"
)

// Options configures a Catalog.
type Options struct {
	AgentsFile       string
	PersonalitiesDir string
	Logger           logging.Logger
}

// Catalog reads definitions and templates from disk on first use and caches
// them. A missing agents file or personalities directory counts as empty.
type Catalog struct {
	opts Options

	mu        sync.Mutex
	loaded    bool
	defs      []Definition
	templates map[string]core.Personality
}

// New creates a file backed catalog.
func New(optFns ...func(o *Options)) *Catalog {
	opts := Options{
		AgentsFile:       DefaultAgentsFile,
		PersonalitiesDir: DefaultPersonalitiesDir,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Catalog{opts: opts}
}

// Definitions returns all participant definitions in file order.
func (c *Catalog) Definitions() ([]Definition, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.defs), nil
}

// Templates returns the names of all personality templates, sorted.
func (c *Catalog) Templates() ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return templateNames(c.templates), nil
}

// ResolvePersonality returns the personality a definition refers to.
func (c *Catalog) ResolvePersonality(def Definition) (core.Personality, error) {
	if err := c.ensureLoaded(); err != nil {
		return core.Personality{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return resolve(def.Personality, c.templates)
}

// Reload drops the cache so the next access reads from disk again.
func (c *Catalog) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loaded = false
	c.defs = nil
	c.templates = nil
}

func (c *Catalog) ensureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	templates, err := LoadTemplates(c.opts.PersonalitiesDir)
	if err != nil {
		return err
	}

	defs, err := LoadDefinitions(c.opts.AgentsFile)
	if err != nil {
		return err
	}

	c.templates = templates
	c.defs = defs
	c.loaded = true

	c.opts.Logger.Info("catalog loaded", "agents", len(defs), "personalities", len(templates), "file", c.opts.AgentsFile)

	return nil
}

// LoadDefinitions reads and validates an agents file. A missing file yields
// no definitions.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return defs, nil
}

// LoadTemplates reads every *.yaml / *.yml file in dir as a personality
// template keyed by file stem. A missing directory yields no templates.
func LoadTemplates(dir string) (map[string]core.Personality, error) {
	templates := make(map[string]core.Personality)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return templates, nil
		}
		return nil, fmt.Errorf("catalog: read personalities %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}

		p, err := ParsePersonality(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		templates[strings.TrimSuffix(entry.Name(), ext)] = p
	}

	return templates, nil
}

// Format renders definitions as the numbered list shown during selection.
func Format(defs []Definition) string {
	lines := lo.Map(defs, func(d Definition, i int) string {
		return fmt.Sprintf("%d. %s (%s/%s, %s)", i+1, d.Name, d.ProviderID, d.ModelName, d.Personality.Label())
	})
	return strings.Join(lines, "\n")
}

func resolve(ref PersonalityRef, templates map[string]core.Personality) (core.Personality, error) {
	switch {
	case ref.Template != "":
		p, ok := templates[ref.Template]
		if !ok {
			available := templateNames(templates)
			if len(available) == 0 {
				return core.Personality{}, fmt.Errorf("%w: %q (no templates available)", core.ErrUnknownPersonality, ref.Template)
			}
			return core.Personality{}, fmt.Errorf("%w: %q (available: %s)", core.ErrUnknownPersonality, ref.Template, strings.Join(available, ", "))
		}
		return withDefaults(p), nil
	case ref.Inline != nil:
		return withDefaults(*ref.Inline), nil
	default:
		return core.DefaultPersonality(), nil
	}
}

func withDefaults(p core.Personality) core.Personality {
	if p.Name == "" {
		p.Name = core.DefaultPersonalityName
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		p.SystemPrompt = core.DefaultSystemPrompt
	}
	return p
}

func templateNames(templates map[string]core.Personality) []string {
	names := lo.Keys(templates)
	slices.Sort(names)
	return names
}

// Static is an in-memory catalog for programmatic use and tests.
type Static struct {
	defs      []Definition
	templates map[string]core.Personality
}

// NewStatic creates a catalog from the given definitions and templates.
func NewStatic(defs []Definition, templates map[string]core.Personality) *Static {
	if templates == nil {
		templates = map[string]core.Personality{}
	}
	return &Static{defs: slices.Clone(defs), templates: templates}
}

// Definitions returns all definitions.
func (s *Static) Definitions() ([]Definition, error) { return slices.Clone(s.defs), nil }

// ResolvePersonality returns the personality a definition refers to.
func (s *Static) ResolvePersonality(def Definition) (core.Personality, error) {
	return resolve(def.Personality, s.templates)
}
