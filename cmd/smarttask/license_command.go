package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smarttask/internal/ipc"
)

func newLicenseCommand(ctx *commandContext) *cobra.Command {
	licenseCmd := &cobra.Command{
		Use:   "license",
		Short: "Manage the SmartTask license",
	}

	licenseCmd.AddCommand(&cobra.Command{
		Use:   "activate <key>",
		Short: "Activate a pro license key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LicenseActivate(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "License activated; tier is now %s\n", resp.Tier)
				return nil
			})
		},
	})

	licenseCmd.AddCommand(&cobra.Command{
		Use:   "deactivate",
		Short: "Remove the stored license key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LicenseDeactivate()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "License deactivated; tier is now %s\n", resp.Tier)
				return nil
			})
		},
	})

	licenseCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current license tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]string{"tier": resp.LicenseTier})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "License tier: %s\n", resp.LicenseTier)
				return nil
			})
		},
	})

	return licenseCmd
}
