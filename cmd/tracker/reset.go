package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Category reset maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Reopen tasks whose category reset passed since they were completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reopened %d task(s)\n", a.caughtUp)
			for _, col := range a.board.Snapshot(ctx).Columns {
				fmt.Fprintf(out, "%s resets at %s (in %s)\n", col.Category.Title(), col.NextReset.UTC().Format("2006-01-02 15:04 MST"), col.Countdown)
			}
			return nil
		},
	})
	return cmd
}
