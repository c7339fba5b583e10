package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/model"
	"github.com/hupe1980/agentteam/orchestrator"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "discussion.timeout")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidPlatforms returns the list of supported gateway platforms
func ValidPlatforms() []string {
	return []string{"none", "slack", "discord"}
}

// ValidLogFormats returns the list of supported log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateDiscussion()...)
	errors = append(errors, c.validateProviders()...)
	errors = append(errors, c.validateCatalog()...)
	errors = append(errors, c.validateGateway()...)
	errors = append(errors, c.validateStatus()...)
	errors = append(errors, c.validateSweeper()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateDiscussion() []ValidationError {
	var errors []ValidationError
	d := c.Discussion

	if _, err := orchestrator.ParseMode(d.Mode); err != nil {
		errors = append(errors, ValidationError{
			Field:   "discussion.mode",
			Value:   d.Mode,
			Message: fmt.Sprintf("must be one of: %s, %s", orchestrator.ModeDebate, orchestrator.ModeConcurrent),
		})
	}

	if d.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.timeout",
			Value:   d.Timeout,
			Message: "must be positive",
		})
	}

	if d.MaxParticipants <= 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.max_participants",
			Value:   d.MaxParticipants,
			Message: "must be positive",
		})
	}

	if d.MaxRounds < 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.max_rounds",
			Value:   d.MaxRounds,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	if d.HistoryWindow < 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.history_window",
			Value:   d.HistoryWindow,
			Message: "must be non-negative (0 = unlimited)",
		})
	}

	if d.Temperature < 0 || d.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "discussion.temperature",
			Value:   d.Temperature,
			Message: "must be between 0 and 2",
		})
	}

	if d.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "discussion.max_tokens",
			Value:   d.MaxTokens,
			Message: "must be positive",
		})
	}

	// commands must not be ambiguous
	seen := map[string]string{}
	groups := []struct {
		field   string
		aliases []string
	}{
		{"discussion.commands.triggers", d.Commands.Triggers},
		{"discussion.commands.select_all", d.Commands.SelectAll},
		{"discussion.commands.continue", d.Commands.Continue},
		{"discussion.commands.end", d.Commands.End},
	}
	for _, g := range groups {
		for _, alias := range g.aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				errors = append(errors, ValidationError{Field: g.field, Value: alias, Message: "aliases must not be empty"})
				continue
			}
			if other, ok := seen[key]; ok && other != g.field {
				errors = append(errors, ValidationError{Field: g.field, Value: alias, Message: "alias already used by " + other})
				continue
			}
			seen[key] = g.field
		}
	}

	return errors
}

func (c *Config) validateProviders() []ValidationError {
	var errors []ValidationError

	ids := make([]string, 0, len(c.Providers))
	for id := range c.Providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, ok := model.LookupProvider(id); !ok {
			errors = append(errors, ValidationError{
				Field:   "providers." + id,
				Value:   id,
				Message: fmt.Sprintf("unknown provider, must be one of: %s", strings.Join(model.ProviderIDs(), ", ")),
			})
		}
	}

	return errors
}

func (c *Config) validateCatalog() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Catalog.AgentsFile) == "" {
		errors = append(errors, ValidationError{
			Field:   "catalog.agents_file",
			Value:   c.Catalog.AgentsFile,
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateGateway() []ValidationError {
	var errors []ValidationError
	g := c.Gateway

	if !slices.Contains(ValidPlatforms(), g.Platform) {
		errors = append(errors, ValidationError{
			Field:   "gateway.platform",
			Value:   g.Platform,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPlatforms(), ", ")),
		})
		return errors
	}

	switch g.Platform {
	case "slack":
		if g.Slack.AppToken == "" {
			errors = append(errors, ValidationError{Field: "gateway.slack.app_token", Value: "", Message: "required for slack"})
		} else if !strings.HasPrefix(g.Slack.AppToken, "xapp-") {
			errors = append(errors, ValidationError{Field: "gateway.slack.app_token", Value: "<redacted>", Message: "must start with xapp-"})
		}
		if g.Slack.BotToken == "" {
			errors = append(errors, ValidationError{Field: "gateway.slack.bot_token", Value: "", Message: "required for slack"})
		} else if !strings.HasPrefix(g.Slack.BotToken, "xoxb-") {
			errors = append(errors, ValidationError{Field: "gateway.slack.bot_token", Value: "<redacted>", Message: "must start with xoxb-"})
		}
	case "discord":
		if g.Discord.Token == "" {
			errors = append(errors, ValidationError{Field: "gateway.discord.token", Value: "", Message: "required for discord"})
		}
	}

	return errors
}

func (c *Config) validateStatus() []ValidationError {
	var errors []ValidationError

	if c.Status.Enabled && strings.TrimSpace(c.Status.Addr) == "" {
		errors = append(errors, ValidationError{
			Field:   "status.addr",
			Value:   c.Status.Addr,
			Message: "required when status is enabled",
		})
	}

	return errors
}

func (c *Config) validateSweeper() []ValidationError {
	var errors []ValidationError

	if c.Sweeper.IdleTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "sweeper.idle_timeout",
			Value:   c.Sweeper.IdleTimeout,
			Message: "must be non-negative (0 = disabled)",
		})
	}

	if c.Sweeper.IdleTimeout > 0 {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Sweeper.Schedule); err != nil {
			errors = append(errors, ValidationError{
				Field:   "sweeper.schedule",
				Value:   c.Sweeper.Schedule,
				Message: "invalid cron expression",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogFormats(), ", ")),
		})
	}

	return errors
}
