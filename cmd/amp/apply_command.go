package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"amp/internal/coalesce"
	"amp/internal/ipc"
	"amp/internal/settings"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		boost          float64
		speed          float64
		night          bool
		pitch          int
		follow         bool
		debounceMillis int
	)

	cmd := &cobra.Command{
		Use:   "apply <hostname>",
		Short: "Apply playback settings to a site",
		Long: `Apply playback settings to a site. Values outside the current plan's
bounds are clamped, never rejected; the daemon reports what actually took
effect. With --follow, key=value lines are read from stdin (for example
"boost=2 night=true") and rapid updates are coalesced so only the latest
one reaches the daemon.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hostname := args[0]
			return ctx.withClient(func(client *ipc.Client) error {
				if follow {
					return followApply(cmd, client, hostname, time.Duration(debounceMillis)*time.Millisecond)
				}

				raw := settings.Raw{}
				if cmd.Flags().Changed("boost") {
					raw.VolumeBoost = boost
				}
				if cmd.Flags().Changed("speed") {
					raw.Speed = speed
				}
				if cmd.Flags().Changed("night") {
					raw.NightMode = night
				}
				if cmd.Flags().Changed("pitch") {
					raw.PitchSemitones = pitch
				}
				return applyOnce(cmd, client, hostname, raw)
			})
		},
	}

	cmd.Flags().Float64Var(&boost, "boost", 1, "Volume boost multiplier")
	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed")
	cmd.Flags().BoolVar(&night, "night", false, "Enable night mode compression")
	cmd.Flags().IntVar(&pitch, "pitch", 0, "Pitch shift in semitones")
	cmd.Flags().BoolVar(&follow, "follow", false, "Read key=value updates from stdin")
	cmd.Flags().IntVar(&debounceMillis, "debounce", 150, "Quiet period before a followed update is sent, in milliseconds")
	return cmd
}

func applyOnce(cmd *cobra.Command, client *ipc.Client, hostname string, raw settings.Raw) error {
	resp, err := client.Apply(ipc.ApplyRequest{Hostname: hostname, Settings: raw})
	if err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	out := cmd.OutOrStdout()
	if !resp.Ok {
		fmt.Fprintf(out, "Apply failed: %s\n", resp.Error)
		return nil
	}

	tier := "free"
	if resp.EffectivePro {
		tier = "pro"
	}
	fmt.Fprintf(out, "Applied to %s (%s tier): boost=%.2f speed=%.2f night=%s pitch=%d\n",
		hostname, tier,
		resp.Applied.VolumeBoost, resp.Applied.Speed,
		yesNo(resp.Applied.NightMode), resp.Applied.PitchSemitones)
	return nil
}

// followApply streams settings updates from stdin through a last-write-wins
// debouncer, flushing the pending update on EOF so the final state is never
// lost.
func followApply(cmd *cobra.Command, client *ipc.Client, hostname string, debounce time.Duration) error {
	debouncer := coalesce.NewDebouncer(debounce, func(raw settings.Raw) {
		if err := applyOnce(cmd, client, hostname, raw); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "apply: %v\n", err)
		}
	})

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		debouncer.Submit(parseRawLine(line))
	}
	debouncer.Flush()
	return scanner.Err()
}

// parseRawLine turns "boost=2 speed=1.5 night=true pitch=-2" into a raw
// record. Values stay strings: the daemon's clamp coerces them, and
// anything unparseable falls back to that field's default.
func parseRawLine(line string) settings.Raw {
	raw := settings.Raw{}
	for _, token := range strings.Fields(line) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "boost", "volume_boost":
			raw.VolumeBoost = value
		case "speed":
			raw.Speed = value
		case "night", "night_mode":
			raw.NightMode = value
		case "pitch", "pitch_semitones":
			raw.PitchSemitones = value
		}
	}
	return raw
}
