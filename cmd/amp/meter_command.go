package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"amp/internal/coalesce"
	"amp/internal/ipc"
)

const meterBarGlyphs = " ▁▂▃▄▅▆▇█"

func newMeterCommand(ctx *commandContext) *cobra.Command {
	var (
		hostname       string
		intervalMillis int
		once           bool
	)

	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Render a live spectrum meter",
		Long: `Render the daemon's spectrum analysis as a terminal bar meter.
Sampling polls the daemon; a tick that arrives while the previous request
is still in flight is skipped rather than queued, so a slow daemon never
builds a backlog.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if once {
					return sampleMeter(cmd, client, hostname, false)
				}

				interactive := shouldColorize(cmd.OutOrStdout())
				ticker := time.NewTicker(time.Duration(intervalMillis) * time.Millisecond)
				defer ticker.Stop()

				var gate coalesce.Gate
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-ticker.C:
						var sampleErr error
						ran := gate.Do(func() {
							sampleErr = sampleMeter(cmd, client, hostname, interactive)
						})
						if ran && sampleErr != nil {
							return sampleErr
						}
					}
				}
			})
		},
	}

	cmd.Flags().StringVar(&hostname, "hostname", "", "Limit metering to one site")
	cmd.Flags().IntVar(&intervalMillis, "interval", 100, "Sample interval in milliseconds")
	cmd.Flags().BoolVar(&once, "once", false, "Sample a single frame and exit")
	return cmd
}

func sampleMeter(cmd *cobra.Command, client *ipc.Client, hostname string, interactive bool) error {
	resp, err := client.Spectrum(ipc.SpectrumRequest{Hostname: hostname})
	if err != nil {
		return fmt.Errorf("sample spectrum: %w", err)
	}

	out := cmd.OutOrStdout()
	line := renderMeterLine(resp)
	if interactive {
		fmt.Fprintf(out, "\r\x1b[K%s", line)
		return nil
	}
	fmt.Fprintln(out, line)
	return nil
}

func renderMeterLine(resp *ipc.SpectrumResponse) string {
	if !resp.Ok {
		if resp.Error != "" {
			return "(" + resp.Error + ")"
		}
		return "(spectrum unavailable)"
	}
	if !resp.Active {
		return "(no audio playing)"
	}

	glyphs := []rune(meterBarGlyphs)
	var b strings.Builder
	for _, level := range resp.Levels {
		if level < 0 {
			level = 0
		}
		if level > 1 {
			level = 1
		}
		idx := int(level * float64(len(glyphs)-1))
		b.WriteRune(glyphs[idx])
	}
	return b.String()
}
