package main

import (
	"fmt"

	"github.com/asaidimu/go-roster/internal/cli"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Open(cmd.Context(), cfg, logger, true)
		if err != nil {
			return err
		}
		defer app.Close()

		out := cmd.OutOrStdout()
		if len(app.Created) == 0 {
			fmt.Fprintln(out, "Nothing to migrate.")
			return nil
		}
		for _, name := range app.Created {
			fmt.Fprintf(out, "Created %s\n", name)
		}
		return nil
	},
}
