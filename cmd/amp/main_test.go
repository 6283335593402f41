package main

import (
	"testing"

	"amp/internal/ipc"
)

func TestParseRawLine(t *testing.T) {
	raw := parseRawLine("boost=2.5 night=true pitch=-3 speed=1.25 junk noise=1")
	if raw.VolumeBoost != "2.5" {
		t.Fatalf("boost = %v", raw.VolumeBoost)
	}
	if raw.NightMode != "true" {
		t.Fatalf("night = %v", raw.NightMode)
	}
	if raw.PitchSemitones != "-3" {
		t.Fatalf("pitch = %v", raw.PitchSemitones)
	}
	if raw.Speed != "1.25" {
		t.Fatalf("speed = %v", raw.Speed)
	}
}

func TestParseRawLineLeavesMissingFieldsNil(t *testing.T) {
	raw := parseRawLine("boost=2")
	if raw.Speed != nil || raw.NightMode != nil || raw.PitchSemitones != nil {
		t.Fatalf("unset fields should stay nil: %+v", raw)
	}
}

func TestRenderMeterLine(t *testing.T) {
	gated := renderMeterLine(&ipc.SpectrumResponse{Ok: false, Error: "spectrum requires an active license or trial"})
	if gated != "(spectrum requires an active license or trial)" {
		t.Fatalf("gated line = %q", gated)
	}

	inactive := renderMeterLine(&ipc.SpectrumResponse{Ok: true, Active: false, Levels: []float64{}})
	if inactive != "(no audio playing)" {
		t.Fatalf("inactive line = %q", inactive)
	}

	active := renderMeterLine(&ipc.SpectrumResponse{Ok: true, Active: true, Levels: []float64{0, 0.5, 1, 2, -1}})
	runes := []rune(active)
	if len(runes) != 5 {
		t.Fatalf("rendered %d glyphs, want 5", len(runes))
	}
	if runes[0] != ' ' {
		t.Fatalf("zero level should render blank, got %q", runes[0])
	}
	if runes[2] != '█' || runes[3] != '█' {
		t.Fatal("full and over-range levels should render the max glyph")
	}
	if runes[4] != ' ' {
		t.Fatal("negative level should clamp to blank")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"status", "ping", "apply", "meter", "trial", "license", "mix", "sites", "resume", "config", "test-notify"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("command %q not registered: %v", name, err)
		}
	}
}
