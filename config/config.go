// Package config loads the agentteam configuration with viper.
//
// Values come, in increasing precedence, from built-in defaults, a YAML file
// and AGENTTEAM_ prefixed environment variables (nested keys use
// underscores, e.g. AGENTTEAM_DISCUSSION_MODE).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/agentteam/catalog"
	"github.com/hupe1980/agentteam/provider"
	"github.com/hupe1980/agentteam/session"
	"github.com/hupe1980/agentteam/team"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENTTEAM"

// Config is the complete process configuration.
type Config struct {
	Discussion  DiscussionConfig           `mapstructure:"discussion"`
	Providers   map[string]provider.Config `mapstructure:"providers"`
	Catalog     CatalogConfig              `mapstructure:"catalog"`
	Gateway     GatewayConfig              `mapstructure:"gateway"`
	Status      StatusConfig               `mapstructure:"status"`
	Sweeper     SweeperConfig              `mapstructure:"sweeper"`
	Transcripts TranscriptsConfig          `mapstructure:"transcripts"`
	Logging     LoggingConfig              `mapstructure:"logging"`
}

// DiscussionConfig controls how rounds run.
type DiscussionConfig struct {
	// Mode is "debate" or "concurrent".
	Mode string `mapstructure:"mode"`
	// Timeout bounds every participant call.
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxParticipants int           `mapstructure:"max_participants"`
	// MaxRounds caps rounds per session, 0 means unlimited.
	MaxRounds int `mapstructure:"max_rounds"`
	// HistoryWindow limits how many recent messages participants see, 0 means all.
	HistoryWindow int              `mapstructure:"history_window"`
	Temperature   float64          `mapstructure:"temperature"`
	MaxTokens     int64            `mapstructure:"max_tokens"`
	Commands      session.Commands `mapstructure:"commands"`
}

// CatalogConfig locates the participant catalog.
type CatalogConfig struct {
	AgentsFile       string `mapstructure:"agents_file"`
	PersonalitiesDir string `mapstructure:"personalities_dir"`
}

// GatewayConfig selects and configures the chat platform.
type GatewayConfig struct {
	// Platform is "slack", "discord" or "none".
	Platform string        `mapstructure:"platform"`
	Slack    SlackConfig   `mapstructure:"slack"`
	Discord  DiscordConfig `mapstructure:"discord"`
	// Channels restricts the bridge to these channel ids when non-empty.
	Channels []string `mapstructure:"channels"`
}

// SlackConfig holds Socket Mode credentials.
type SlackConfig struct {
	AppToken string `mapstructure:"app_token"`
	BotToken string `mapstructure:"bot_token"`
	// MentionsOnly reacts to @-mentions of the bot instead of every message.
	MentionsOnly bool `mapstructure:"mentions_only"`
}

// DiscordConfig holds the bot token.
type DiscordConfig struct {
	Token string `mapstructure:"token"`
}

// StatusConfig controls the read-only HTTP status endpoint.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// SweeperConfig controls idle session expiry. A zero IdleTimeout disables it.
type SweeperConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Schedule    string        `mapstructure:"schedule"`
}

// TranscriptsConfig controls archiving of finished discussions. With an empty
// Dir transcripts are kept in memory for the lifetime of the process.
type TranscriptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Discussion: DiscussionConfig{
			Mode:            "debate",
			Timeout:         30 * time.Second,
			MaxParticipants: team.DefaultCapacity,
			Temperature:     0.7,
			MaxTokens:       4096,
			Commands:        session.DefaultCommands(),
		},
		Providers: map[string]provider.Config{},
		Catalog: CatalogConfig{
			AgentsFile:       catalog.DefaultAgentsFile,
			PersonalitiesDir: catalog.DefaultPersonalitiesDir,
		},
		Gateway: GatewayConfig{
			Platform: "none",
		},
		Status: StatusConfig{
			Addr: ":8080",
		},
		Sweeper: SweeperConfig{
			Schedule: session.DefaultSweepSchedule,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers default values with v. Every key is registered so
// environment overrides apply to it.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Discussion defaults
	v.SetDefault("discussion.mode", defaults.Discussion.Mode)
	v.SetDefault("discussion.timeout", defaults.Discussion.Timeout)
	v.SetDefault("discussion.max_participants", defaults.Discussion.MaxParticipants)
	v.SetDefault("discussion.max_rounds", defaults.Discussion.MaxRounds)
	v.SetDefault("discussion.history_window", defaults.Discussion.HistoryWindow)
	v.SetDefault("discussion.temperature", defaults.Discussion.Temperature)
	v.SetDefault("discussion.max_tokens", defaults.Discussion.MaxTokens)
	v.SetDefault("discussion.commands.triggers", defaults.Discussion.Commands.Triggers)
	v.SetDefault("discussion.commands.select_all", defaults.Discussion.Commands.SelectAll)
	v.SetDefault("discussion.commands.continue", defaults.Discussion.Commands.Continue)
	v.SetDefault("discussion.commands.end", defaults.Discussion.Commands.End)

	// Catalog defaults
	v.SetDefault("catalog.agents_file", defaults.Catalog.AgentsFile)
	v.SetDefault("catalog.personalities_dir", defaults.Catalog.PersonalitiesDir)

	// Gateway defaults
	v.SetDefault("gateway.platform", defaults.Gateway.Platform)
	v.SetDefault("gateway.slack.app_token", "")
	v.SetDefault("gateway.slack.bot_token", "")
	v.SetDefault("gateway.slack.mentions_only", false)
	v.SetDefault("gateway.discord.token", "")
	v.SetDefault("gateway.channels", []string{})

	// Status defaults
	v.SetDefault("status.enabled", defaults.Status.Enabled)
	v.SetDefault("status.addr", defaults.Status.Addr)

	// Sweeper defaults
	v.SetDefault("sweeper.idle_timeout", defaults.Sweeper.IdleTimeout)
	v.SetDefault("sweeper.schedule", defaults.Sweeper.Schedule)

	// Transcripts defaults
	v.SetDefault("transcripts.dir", defaults.Transcripts.Dir)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// NewViper returns a viper instance with defaults and environment binding.
// When configFile is empty the standard locations are searched and a missing
// file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// the platform SDKs' conventional variables work too
	_ = v.BindEnv("gateway.slack.app_token", EnvPrefix+"_GATEWAY_SLACK_APP_TOKEN", "SLACK_APP_TOKEN")
	_ = v.BindEnv("gateway.slack.bot_token", EnvPrefix+"_GATEWAY_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN")
	_ = v.BindEnv("gateway.discord.token", EnvPrefix+"_GATEWAY_DISCORD_TOKEN", "DISCORD_BOT_TOKEN")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("agentteam")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(configFile), err)
		}
	}

	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]provider.Config{}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// LoadFile is NewViper followed by Load.
func LoadFile(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return Load(v)
}

// Dir returns the user's agentteam config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentteam")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentteam"
	}
	return filepath.Join(home, ".config", "agentteam")
}

func describe(configFile string) string {
	if configFile == "" {
		return "config file"
	}
	return configFile
}
