package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smarttask/internal/ipc"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var providerFlag string

	cmd := &cobra.Command{
		Use:   "ask <command>",
		Short: "Submit a command to the configured AI provider",
		Long: `Submit a command to the configured AI provider.

The leading keywords select an intent (generate report, draft email,
analyze file); anything else is sent as a freeform prompt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(command, providerFlag)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Result)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, resp.Result.Content)
				if resp.Result.Retried {
					fmt.Fprintln(cmd.ErrOrStderr(), "(succeeded after one retry)")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", "", "Provider for this request (openai, claude, gemini, custom)")
	return cmd
}
