package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"amp/internal/ipc"
)

func newTrialCommand(ctx *commandContext) *cobra.Command {
	trialCmd := &cobra.Command{
		Use:   "trial",
		Short: "Manage the pro trial",
	}

	trialCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the one-time pro trial",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TrialStart()
				if err != nil {
					return fmt.Errorf("start trial: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "Trial not started: %s\n", resp.Error)
					if remaining := time.Duration(resp.TrialRemainingMillis) * time.Millisecond; remaining > 0 {
						fmt.Fprintf(out, "Current trial has %s remaining\n", remaining.Round(time.Second))
					}
					return nil
				}
				remaining := time.Duration(resp.TrialRemainingMillis) * time.Millisecond
				fmt.Fprintf(out, "Trial started: %s of pro features\n", remaining.Round(time.Second))
				return nil
			})
		},
	})

	return trialCmd
}

func newLicenseCommand(ctx *commandContext) *cobra.Command {
	licenseCmd := &cobra.Command{
		Use:   "license",
		Short: "Manage the pro license",
	}

	licenseCmd.AddCommand(newLicenseSetCommand(ctx, "activate", "Activate the pro license", true))
	licenseCmd.AddCommand(newLicenseSetCommand(ctx, "deactivate", "Deactivate the pro license", false))
	return licenseCmd
}

func newLicenseSetCommand(ctx *commandContext, use, short string, licensed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LicenseSet(licensed)
				if err != nil {
					return fmt.Errorf("update license: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "License update failed: %s\n", resp.Error)
					return nil
				}
				if licensed {
					fmt.Fprintln(out, "License activated: pro features unlocked")
				} else {
					fmt.Fprintln(out, "License deactivated")
					if !resp.EffectivePro {
						fmt.Fprintln(out, "Settings now follow free-tier limits")
					}
				}
				return nil
			})
		},
	}
}
