package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"smarttask/internal/ipc"
)

func newQuotaCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show free-tier usage for the current month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QuotaStatus()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Status)
				}
				out := cmd.OutOrStdout()
				status := resp.Status
				if status.Unlimited {
					fmt.Fprintf(out, "Pro license active; usage is unlimited (period %s)\n", status.Period)
					return nil
				}
				if stdoutIsTerminal() {
					rows := [][]string{{
						status.Period,
						strconv.Itoa(status.Consumed),
						strconv.Itoa(status.Reserved),
						strconv.Itoa(status.Remaining),
						strconv.Itoa(status.Limit),
					}}
					fmt.Fprintln(out, renderTable(
						[]string{"Period", "Used", "In Flight", "Remaining", "Limit"},
						rows,
						[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
					))
					return nil
				}
				fmt.Fprintf(out, "%s: %d used, %d in flight, %d remaining of %d\n",
					status.Period, status.Consumed, status.Reserved, status.Remaining, status.Limit)
				return nil
			})
		},
	}
}
