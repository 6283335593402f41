package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"amp/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, entitlement, and media status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("query status: %w", err)
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, status)
				}
				writeStatus(cmd, status)
				return nil
			})
		},
	}
}

func writeStatus(cmd *cobra.Command, status *ipc.StatusResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusError
	if status.Running {
		runningKind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Running", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))
	storeKind := statusOK
	storeMsg := status.StateDBPath
	if !status.StoreHealthy {
		storeKind = statusError
		if status.StoreError != "" {
			storeMsg = status.StoreError
		}
	}
	fmt.Fprintln(out, renderStatusLine("State store", storeKind, storeMsg, colorize))

	for _, line := range renderSectionHeader("Entitlement", colorize) {
		fmt.Fprintln(out, line)
	}
	tier := "free"
	tierKind := statusInfo
	if status.EffectivePro {
		tier = "pro"
		tierKind = statusPro
	}
	fmt.Fprintln(out, renderStatusLine("Tier", tierKind, tier, colorize))
	fmt.Fprintln(out, renderStatusLine("Licensed", statusInfo, yesNo(status.Licensed), colorize))
	if remaining := time.Duration(status.TrialRemainingMillis) * time.Millisecond; remaining > 0 {
		fmt.Fprintln(out, renderStatusLine("Trial remaining", statusWarn, remaining.Round(time.Second).String(), colorize))
	}

	for _, line := range renderSectionHeader("Media", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Elements", statusInfo, fmt.Sprintf("%d", status.MediaCount), colorize))
	fmt.Fprintln(out, renderStatusLine("Pipelines", statusInfo, fmt.Sprintf("%d", status.Pipelines), colorize))
	fmt.Fprintln(out, renderStatusLine("Stored sites", statusInfo, fmt.Sprintf("%d", status.SiteCount), colorize))
}
