package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"smarttask/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				renderStatus(cmd, resp)
				return nil
			})
		},
	}
}

func renderStatus(cmd *cobra.Command, resp *ipc.StatusResponse) {
	state := "stopped"
	if resp.Running {
		state = "running"
	}
	rows := [][]string{
		{"State", state},
		{"PID", strconv.Itoa(resp.PID)},
		{"Database", resp.DatabasePath},
		{"Lock file", resp.LockPath},
		{"Default provider", resp.DefaultProvider},
		{"License tier", resp.LicenseTier},
		{"Open tasks", strconv.Itoa(resp.OpenTasks)},
		{"Due tasks", strconv.Itoa(resp.DueTasks)},
	}
	if stdoutIsTerminal() {
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
		return
	}
	for _, row := range rows {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", row[0], row[1])
	}
}
