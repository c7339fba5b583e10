package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentteam/config"
	"github.com/hupe1980/agentteam/gateway"
	discordadapter "github.com/hupe1980/agentteam/gateway/discord"
	slackadapter "github.com/hupe1980/agentteam/gateway/slack"
	"github.com/hupe1980/agentteam/logging"
	"github.com/hupe1980/agentteam/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		platform   string
		statusAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bridge",
		Long: "Connects to the configured chat platform and runs discussions in its channels.\n" +
			"Optionally serves a read-only status endpoint and expires idle sessions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, platform, statusAddr)
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "slack or discord (overrides gateway.platform)")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve the status endpoint on this address (overrides status.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, flags *rootFlags, platform, statusAddr string) error {
	app, logger, err := loadApp(flags.configPath, cmd.ErrOrStderr(), func(cfg *config.Config) {
		if platform != "" {
			cfg.Gateway.Platform = platform
		}
		if statusAddr != "" {
			cfg.Status.Enabled = true
			cfg.Status.Addr = statusAddr
		}
	})
	if err != nil {
		return err
	}
	cfg := app.Config()

	adapter, err := createAdapter(cfg, logger)
	if err != nil {
		return err
	}

	bridge, err := gateway.NewBridge(adapter, app.Handler(), func(o *gateway.BridgeOptions) {
		o.Channels = cfg.Gateway.Channels
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	sweeper, err := app.NewSweeper()
	if err != nil {
		return err
	}
	if sweeper != nil {
		sweeper.Start()
		defer sweeper.Stop()
	}

	// Handle OS signals for graceful shutdown.
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	if cfg.Status.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Start(ctx, app, func(o *server.Options) {
				o.Addr = cfg.Status.Addr
				o.Transcripts = app.Transcripts()
				o.Logger = logger
			}); err != nil {
				logger.Error("status server stopped", "error", err)
				cancel()
			}
		}()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "AgentTeam bridge running on %s (Ctrl+C to stop)\n", cfg.Gateway.Platform)

	err = bridge.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config, logger logging.Logger) (gateway.Adapter, error) {
	switch cfg.Gateway.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken:     cfg.Gateway.Slack.AppToken,
			BotToken:     cfg.Gateway.Slack.BotToken,
			MentionsOnly: cfg.Gateway.Slack.MentionsOnly,
			Logger:       logger,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken: cfg.Gateway.Discord.Token,
			Logger:   logger,
		})
	case "", "none":
		return nil, fmt.Errorf("serve: no platform configured (set gateway.platform or --platform)")
	default:
		return nil, fmt.Errorf("serve: unsupported platform %q", cfg.Gateway.Platform)
	}
}
