package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentteam"
	"github.com/hupe1980/agentteam/orchestrator"
)

func newDiscussCmd(flags *rootFlags) *cobra.Command {
	var (
		topic  string
		rounds int
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "discuss",
		Short: "Run a one-shot discussion with every catalog participant",
		Long: "Runs a discussion in the terminal. The topic is posted in the first round,\n" +
			"later rounds continue the conversation. The full history is printed at the end.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscuss(cmd, flags, topic, rounds, mode)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "discussion topic (required)")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 3, "number of rounds")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "debate or concurrent (default: from config)")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runDiscuss(cmd *cobra.Command, flags *rootFlags, topic string, rounds int, mode string) error {
	if rounds <= 0 {
		return fmt.Errorf("--rounds must be positive, got %d", rounds)
	}

	var m orchestrator.Mode
	if mode != "" {
		parsed, err := orchestrator.ParseMode(mode)
		if err != nil {
			return err
		}
		m = parsed
	}

	app, _, err := loadApp(flags.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTitle("Topic: "+topic))

	t, err := app.Discuss(ctx, agentteam.DiscussOptions{
		Topic:  topic,
		Rounds: rounds,
		Mode:   m,
		OnResult: func(round int, r orchestrator.Result) {
			fmt.Fprintln(out, renderResult(round, r))
			fmt.Fprintln(out)
		},
	})
	if err != nil && t == nil {
		return err
	}

	fmt.Fprintln(out, renderTitle("History"))
	fmt.Fprintln(out, renderHistory(t.Log().Messages()))

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
