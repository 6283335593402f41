package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"amp/internal/ipc"
)

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check daemon liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ping()
				if err != nil {
					return fmt.Errorf("ping daemon: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Daemon is up (media present: %s)\n", yesNo(resp.HasMedia))
				return nil
			})
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume the daemon's audio graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ResumeAudio()
				if err != nil {
					return fmt.Errorf("resume audio: %w", err)
				}
				out := cmd.OutOrStdout()
				if resp.Resumed {
					fmt.Fprintln(out, "Audio graph running")
				} else {
					fmt.Fprintln(out, "No audio graph active yet; it starts with the first enhanced element")
				}
				return nil
			})
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test push notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("send test notification: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "Notification failed: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintln(out, resp.Message)
				return nil
			})
		},
	}
}
