package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/internal/service"
)

func eventsCmd(opts *rootOptions) *cobra.Command {
	var (
		window int
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the upcoming wilderness event rotation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if window <= 0 {
				window = a.cfg.EventWindow
			}
			showUTC := a.prefs.ShowUTC(ctx)
			if cmd.Flags().Changed("local") {
				showUTC = !local
			}

			now := a.clock.Now()
			mode := "UTC"
			if !showUTC {
				mode = "local"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wilderness events (%s)\n", mode)
			for _, slot := range a.events.UpcomingWindow(now, window, showUTC, time.Local) {
				marker := "  "
				if slot.Next {
					marker = "> "
				}
				name := slot.Name
				if slot.Special {
					name += " *"
				}
				fmt.Fprintf(out, "%s%s  %-5s  %s\n", marker, slot.Display, service.FormatEventCountdown(slot.Countdown), name)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&window, "window", "n", 0, "Number of hourly slots to show (default from config)")
	cmd.Flags().BoolVar(&local, "local", false, "Show local times instead of UTC")

	return cmd
}
