package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/internal/bot"
	"task-tracker/internal/dashboard"
	"task-tracker/internal/service"
)

func botCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with the reset scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}

			telegramBot, err := bot.New(&a.cfg, a.tasks, a.prefs, a.board, a.log)
			if err != nil {
				return err
			}

			scheduler := service.NewSchedulerService(time.UTC)
			if err := a.resets.Start(ctx, scheduler, a.cfg.TickInterval); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			a.log.Info("tracker bot started")
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info("shutdown complete")
			return nil
		},
	}
}

func dashboardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the live task board and event table in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			// The alt screen owns the terminal while the board is up.
			a.log.SetOutput(io.Discard)

			scheduler := service.NewSchedulerService(time.UTC)
			if err := a.resets.Start(ctx, scheduler, a.cfg.TickInterval); err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			return dashboard.Run(ctx, dashboard.New(ctx, a.board, a.prefs, a.log))
		},
	}
}
