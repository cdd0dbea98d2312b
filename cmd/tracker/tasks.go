package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func tasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}

	cmd.AddCommand(tasksListCmd(opts))
	cmd.AddCommand(tasksAddCmd(opts))
	cmd.AddCommand(tasksDoneCmd(opts))
	cmd.AddCommand(tasksRemoveCmd(opts))
	cmd.AddCommand(tasksEditCmd(opts))

	return cmd
}

func tasksListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show tasks grouped by category with reset countdowns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			board := a.board.Snapshot(ctx)
			n := 0
			for _, col := range board.Columns {
				fmt.Fprintf(out, "%s (resets in %s)\n", col.Category.Title(), col.Countdown)
				if len(col.Tasks) == 0 {
					fmt.Fprintln(out, "  -")
				}
				for _, task := range col.Tasks {
					n++
					fmt.Fprintf(out, "  %s\n", formatTaskLine(n, task, a.board.Location()))
				}
			}
			return nil
		},
	}
}

func tasksAddCmd(opts *rootOptions) *cobra.Command {
	var (
		category string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := model.ParseCategory(category)
			if err != nil {
				return err
			}
			if priority < model.MinPriority || priority > model.MaxPriority {
				return fmt.Errorf("priority must be between %d and %d", model.MinPriority, model.MaxPriority)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			task, err := a.tasks.Add(ctx, strings.Join(args, " "), cat, priority)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s\n", task.ID, task.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", string(model.CategoryDaily), "Category: daily, weekly or monthly")
	cmd.Flags().IntVarP(&priority, "priority", "p", model.DefaultPriority, "Priority from 1 to 10")

	return cmd
}

func tasksDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done [id|number]",
		Short: "Toggle completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			task, ok, err := a.tasks.ToggleComplete(ctx, target.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no task %q", args[0])
			}
			state := "reopened"
			if task.Completed {
				state = "completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", state, task.Text)
			return nil
		},
	}
}

func tasksRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id|number]",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := a.tasks.Remove(ctx, target.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed: %s\n", target.Text)
			return nil
		},
	}
}

func tasksEditCmd(opts *rootOptions) *cobra.Command {
	var (
		text     string
		category string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "edit [id|number]",
		Short: "Change the text, category or priority of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TaskPatch
			if cmd.Flags().Changed("text") {
				patch.Text = &text
			}
			if cmd.Flags().Changed("category") {
				cat, err := model.ParseCategory(category)
				if err != nil {
					return err
				}
				patch.Category = &cat
			}
			if cmd.Flags().Changed("priority") {
				if priority < model.MinPriority || priority > model.MaxPriority {
					return fmt.Errorf("priority must be between %d and %d", model.MinPriority, model.MaxPriority)
				}
				patch.Priority = &priority
			}
			if patch.Text == nil && patch.Category == nil && patch.Priority == nil {
				return fmt.Errorf("nothing to change: pass --text, --category or --priority")
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			target, err := a.resolveTask(ctx, args[0])
			if err != nil {
				return err
			}
			task, ok, err := a.tasks.Edit(ctx, target.ID, patch)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no task %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s [%s, p%d]\n", task.ID, task.Text, task.Category, task.Priority)
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "New task text")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "New priority")

	return cmd
}

func formatTaskLine(n int, task model.Task, loc *time.Location) string {
	mark := "[ ]"
	if task.Completed {
		mark = "[x]"
	}
	line := fmt.Sprintf("%d. %s %s (p%d) %s", n, mark, task.Text, task.Priority, task.ID)
	if task.Completed && task.CompletedAt != nil {
		line += fmt.Sprintf(" - completed on %s", service.FormatCompletedAt(*task.CompletedAt, loc))
	}
	return line
}
