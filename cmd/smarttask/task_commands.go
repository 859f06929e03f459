package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smarttask/internal/api"
	"smarttask/internal/ipc"
)

// dueInputLayouts are accepted by --due, most specific first.
var dueInputLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks and reminders",
	}

	taskCmd.AddCommand(newTaskAddCommand(ctx))
	taskCmd.AddCommand(newTaskEditCommand(ctx))
	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskDoneCommand(ctx))
	taskCmd.AddCommand(newTaskRemoveCommand(ctx))

	return taskCmd
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	var descFlag string
	var dueFlag string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			dueAt, err := parseDueInput(dueFlag)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TaskAdd(title, descFlag, dueAt)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Task)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", resp.Task.ID, resp.Task.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&descFlag, "desc", "", "Task description")
	cmd.Flags().StringVar(&dueFlag, "due", "", "Due time (RFC3339, '2006-01-02 15:04', or '2006-01-02')")
	return cmd
}

func newTaskEditCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string
	var descFlag string
	var dueFlag string
	var clearDueFlag bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's title, description, or due time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if titleFlag == "" && descFlag == "" && dueFlag == "" && !clearDueFlag {
				return fmt.Errorf("nothing to change; pass --title, --desc, --due, or --clear-due")
			}
			if dueFlag != "" && clearDueFlag {
				return fmt.Errorf("--due and --clear-due are mutually exclusive")
			}
			dueAt, err := parseDueInput(dueFlag)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TaskUpdate(id, titleFlag, descFlag, dueAt, clearDueFlag)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Task)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s\n", resp.Task.ID, resp.Task.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "New title")
	cmd.Flags().StringVar(&descFlag, "desc", "", "New description")
	cmd.Flags().StringVar(&dueFlag, "due", "", "New due time (RFC3339, '2006-01-02 15:04', or '2006-01-02')")
	cmd.Flags().BoolVar(&clearDueFlag, "clear-due", false, "Remove the due time")
	return cmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TaskList(filterFlag)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Tasks)
				}
				out := cmd.OutOrStdout()
				if len(resp.Tasks) == 0 {
					fmt.Fprintln(out, "No tasks")
					return nil
				}
				if stdoutIsTerminal() {
					fmt.Fprintln(out, renderTaskTable(resp.Tasks))
					return nil
				}
				for _, task := range resp.Tasks {
					fmt.Fprintln(out, renderTaskLine(task))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filterFlag, "filter", "open", "Task filter (open, completed, due, all)")
	return cmd
}

func newTaskDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.TaskComplete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %d\n", id)
				return nil
			})
		},
	}
}

func newTaskRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.TaskDelete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}
}

func parseTaskID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", arg)
	}
	return id, nil
}

// parseDueInput normalizes user-entered due times into RFC3339 for the
// wire. Date-only input resolves to local midnight.
func parseDueInput(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, layout := range dueInputLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return parsed.Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("unrecognized due time %q", value)
}

func renderTaskTable(tasks []ipc.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			strconv.FormatInt(task.ID, 10),
			task.Title,
			formatDue(task.DueAt),
			taskState(task),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Due", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func renderTaskLine(task ipc.Task) string {
	return fmt.Sprintf("%d\t%s\t%s\t%s", task.ID, task.Title, formatDue(task.DueAt), taskState(task))
}

func formatDue(value string) string {
	if value == "" {
		return "-"
	}
	parsed, err := api.ParseDueAt(value)
	if err != nil || parsed == nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func taskState(task ipc.Task) string {
	if task.Completed {
		return "done"
	}
	if task.ReminderFired {
		return "reminded"
	}
	return "open"
}
