package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"amp/internal/ipc"
	"amp/internal/settings"
)

func newSitesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List stored per-site settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SettingsList()
				if err != nil {
					return fmt.Errorf("list settings: %w", err)
				}
				out := cmd.OutOrStdout()
				if !resp.Ok {
					fmt.Fprintf(out, "List failed: %s\n", resp.Error)
					return nil
				}
				if ctx.jsonMode() {
					sites := resp.Sites
					if sites == nil {
						sites = []ipc.SiteRecord{}
					}
					return writeJSON(cmd, map[string]any{"sites": sites})
				}
				if len(resp.Sites) == 0 {
					fmt.Fprintln(out, "No stored site settings")
					return nil
				}

				rows := make([][]string, 0, len(resp.Sites))
				for _, site := range resp.Sites {
					rows = append(rows, []string{
						settings.SiteLabel(site.Hostname),
						site.Hostname,
						fmt.Sprintf("%.2f", site.Settings.VolumeBoost),
						fmt.Sprintf("%.2f", site.Settings.Speed),
						yesNo(site.Settings.NightMode),
						fmt.Sprintf("%d", site.Settings.PitchSemitones),
						site.UpdatedAt,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Site", "Hostname", "Boost", "Speed", "Night", "Pitch", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}
