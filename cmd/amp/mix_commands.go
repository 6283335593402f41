package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"amp/internal/ipc"
)

func newMixCommand(ctx *commandContext) *cobra.Command {
	mixCmd := &cobra.Command{
		Use:   "mix",
		Short: "Save and restore a settings snapshot",
	}

	mixCmd.AddCommand(&cobra.Command{
		Use:   "save <hostname>",
		Short: "Save the site's current settings as the mix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.MixSave(args[0])
				if err != nil {
					return fmt.Errorf("save mix: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "Mix save failed: %s\n", resp.Error)
					return nil
				}
				fmt.Fprintf(out, "Saved mix: boost=%.2f speed=%.2f night=%s pitch=%d\n",
					resp.Mix.VolumeBoost, resp.Mix.Speed, yesNo(resp.Mix.NightMode), resp.Mix.PitchSemitones)
				return nil
			})
		},
	})

	mixCmd.AddCommand(&cobra.Command{
		Use:   "load <hostname>",
		Short: "Apply the saved mix to a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.MixLoad(args[0])
				if err != nil {
					return fmt.Errorf("load mix: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "Mix load failed: %s\n", resp.Error)
					return nil
				}
				fmt.Fprintf(out, "Applied mix to %s: boost=%.2f speed=%.2f night=%s pitch=%d\n",
					args[0], resp.Mix.VolumeBoost, resp.Mix.Speed, yesNo(resp.Mix.NightMode), resp.Mix.PitchSemitones)
				return nil
			})
		},
	})

	return mixCmd
}
