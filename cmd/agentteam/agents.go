package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentteam/catalog"
)

func newAgentsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the participants in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(flags.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			defs, err := app.Catalog().Definitions()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(defs) == 0 {
				fmt.Fprintf(out, "No participants configured (see %s).\n", app.Config().Catalog.AgentsFile)
				return nil
			}

			fmt.Fprintln(out, renderTitle(fmt.Sprintf("%d participants", len(defs))))
			fmt.Fprintln(out, catalog.Format(defs))
			return nil
		},
	}
}
