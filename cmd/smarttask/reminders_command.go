package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smarttask/internal/ipc"
)

func newRemindersCommand(ctx *commandContext) *cobra.Command {
	var followFlag bool
	var waitFlag int

	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Show due tasks, or follow reminder events as they fire",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !followFlag {
				return ctx.withClient(func(client *ipc.Client) error {
					resp, err := client.TaskList("due")
					if err != nil {
						return err
					}
					if ctx.jsonOutput() {
						return writeJSON(cmd, resp.Tasks)
					}
					out := cmd.OutOrStdout()
					if len(resp.Tasks) == 0 {
						fmt.Fprintln(out, "No due tasks")
						return nil
					}
					for _, task := range resp.Tasks {
						fmt.Fprintln(out, renderTaskLine(task))
					}
					return nil
				})
			}

			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for reminders (ctrl-c to stop)")
				for {
					resp, err := client.ReminderWait(waitFlag)
					if err != nil {
						return err
					}
					if resp.Event == nil {
						continue
					}
					if ctx.jsonOutput() {
						if err := writeJSON(cmd, resp.Event); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(out, "Reminder: task %d %q due %s\n",
						resp.Event.TaskID, resp.Event.Title, formatDue(resp.Event.DueAt))
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&followFlag, "follow", "f", false, "Stream reminder events as they fire")
	cmd.Flags().IntVar(&waitFlag, "wait", 30000, "Long-poll wait per request in milliseconds")
	return cmd
}
