package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// chatSessionID identifies the single terminal session.
const chatSessionID = "cli"

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Drive a discussion interactively from the terminal",
		Long: "Reads lines from stdin and feeds them to the same state machine the chat\n" +
			"bridges use. Type \"quit\" or send EOF to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, flags)
		},
	}
}

func runChat(cmd *cobra.Command, flags *rootFlags) error {
	app, _, err := loadApp(flags.configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := cmd.OutOrStdout()
	emit := func(_ context.Context, text string) error {
		_, err := fmt.Fprintln(out, text)
		return err
	}

	cmds := app.Handler().Commands()
	fmt.Fprintln(out, renderTitle("AgentTeam chat"))
	fmt.Fprintln(out, renderDim(fmt.Sprintf("Start with: %s <topic>. Type quit to leave.", cmds.Triggers[0])))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if err := app.HandleMessage(ctx, chatSessionID, line, emit); err != nil {
			// the handler already told the user what went wrong
			fmt.Fprintln(cmd.ErrOrStderr(), renderDim(err.Error()))
		}
	}

	return scanner.Err()
}
