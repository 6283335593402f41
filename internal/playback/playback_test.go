package playback_test

import (
	"math"
	"testing"

	"amp/internal/playback"
)

func TestDeriveZeroSemitonesPreservesPitch(t *testing.T) {
	got := playback.Derive(2.0, 0)
	if !got.PreservePitch {
		t.Fatal("expected PreservePitch=true for zero semitones")
	}
	if got.PlaybackRate != 2.0 {
		t.Fatalf("rate = %v, want 2.0", got.PlaybackRate)
	}
}

func TestDeriveOctaveUp(t *testing.T) {
	got := playback.Derive(1.0, 12)
	if got.PreservePitch {
		t.Fatal("expected PreservePitch=false for pitched playback")
	}
	if math.Abs(got.PlaybackRate-2.0) > 1e-9 {
		t.Fatalf("rate = %v, want 2.0", got.PlaybackRate)
	}
}

func TestDeriveOctaveDown(t *testing.T) {
	got := playback.Derive(1.0, -12)
	if got.PreservePitch {
		t.Fatal("expected PreservePitch=false for pitched playback")
	}
	if math.Abs(got.PlaybackRate-0.5) > 1e-9 {
		t.Fatalf("rate = %v, want 0.5", got.PlaybackRate)
	}
}

func TestDeriveCombinesSpeedAndPitch(t *testing.T) {
	got := playback.Derive(1.5, 7)
	want := 1.5 * math.Pow(2, 7.0/12.0)
	if math.Abs(got.PlaybackRate-want) > 1e-9 {
		t.Fatalf("rate = %v, want %v", got.PlaybackRate, want)
	}
}
