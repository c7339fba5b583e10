package main

import (
	"fmt"
	"io"

	"github.com/hupe1980/agentteam"
	"github.com/hupe1980/agentteam/config"
	"github.com/hupe1980/agentteam/logging"
)

// appOptions are applied to every AgentTeam the CLI builds. Tests use it to
// swap in a static catalog and scripted participants.
var appOptions []func(o *agentteam.Options)

// loadApp reads the configuration and assembles the façade. Logs go to logOut.
func loadApp(configPath string, logOut io.Writer, overrides ...func(cfg *config.Config)) (*agentteam.AgentTeam, logging.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}

	for _, fn := range overrides {
		fn(cfg)
	}

	logger, err := agentteam.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, nil, err
	}

	fns := append([]func(o *agentteam.Options){func(o *agentteam.Options) {
		o.Logger = logger
	}}, appOptions...)

	app, err := agentteam.New(cfg, fns...)
	if err != nil {
		return nil, nil, fmt.Errorf("init: %w", err)
	}
	return app, logger, nil
}
