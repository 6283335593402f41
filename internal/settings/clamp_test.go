package settings_test

import (
	"math"
	"testing"

	"amp/internal/settings"
)

func TestClampBoundsForBothTiers(t *testing.T) {
	inputs := []settings.Raw{
		{},
		{VolumeBoost: 99.0, Speed: 99.0, NightMode: true, PitchSemitones: 99},
		{VolumeBoost: -5.0, Speed: -5.0, NightMode: false, PitchSemitones: -99},
		{VolumeBoost: math.NaN(), Speed: math.Inf(1), PitchSemitones: math.NaN()},
		{VolumeBoost: "4.5", Speed: "2", NightMode: "true", PitchSemitones: "7"},
		{VolumeBoost: []string{"garbage"}, Speed: map[string]int{}, NightMode: 1, PitchSemitones: false},
	}

	for _, pro := range []bool{false, true} {
		boostMax := settings.VolumeBoostMaxFree
		if pro {
			boostMax = settings.VolumeBoostMaxPro
		}
		for i, raw := range inputs {
			s := settings.Clamp(raw, pro)
			if s.VolumeBoost < settings.VolumeBoostMin || s.VolumeBoost > boostMax {
				t.Errorf("case %d pro=%v: volume boost %v out of bounds", i, pro, s.VolumeBoost)
			}
			if s.Speed < settings.SpeedMin || s.Speed > settings.SpeedMax {
				t.Errorf("case %d pro=%v: speed %v out of bounds", i, pro, s.Speed)
			}
			if s.PitchSemitones < settings.PitchSemitonesMin || s.PitchSemitones > settings.PitchSemitonesMax {
				t.Errorf("case %d pro=%v: pitch %v out of bounds", i, pro, s.PitchSemitones)
			}
		}
	}
}

func TestClampFreeTierForcesRestrictions(t *testing.T) {
	s := settings.Clamp(settings.Raw{VolumeBoost: 6.0, Speed: 2.0, NightMode: true, PitchSemitones: 12}, false)
	if s.VolumeBoost > settings.VolumeBoostMaxFree {
		t.Fatalf("free tier boost = %v, want <= %v", s.VolumeBoost, settings.VolumeBoostMaxFree)
	}
	if s.NightMode {
		t.Fatal("free tier must force night mode off")
	}
	if s.PitchSemitones != 0 {
		t.Fatalf("free tier pitch = %d, want 0", s.PitchSemitones)
	}
	if s.Speed != 2.0 {
		t.Fatalf("speed = %v, want 2.0 (speed is not plan gated)", s.Speed)
	}
}

func TestClampIsIdempotent(t *testing.T) {
	inputs := []settings.Raw{
		{VolumeBoost: 4.2, Speed: 1.5, NightMode: true, PitchSemitones: 3},
		{VolumeBoost: math.Inf(-1), Speed: 0.0, NightMode: "yes", PitchSemitones: -40},
		{},
	}
	for _, pro := range []bool{false, true} {
		for i, raw := range inputs {
			once := settings.Clamp(raw, pro)
			twice := settings.ClampSettings(once, pro)
			if once != twice {
				t.Errorf("case %d pro=%v: clamp not idempotent: %+v vs %+v", i, pro, once, twice)
			}
		}
	}
}

func TestClampDefaults(t *testing.T) {
	s := settings.Clamp(settings.Raw{}, true)
	want := settings.Defaults()
	if s != want {
		t.Fatalf("empty raw = %+v, want defaults %+v", s, want)
	}
}

func TestNonFiniteFallsBackToMinimum(t *testing.T) {
	s := settings.Clamp(settings.Raw{VolumeBoost: math.NaN(), Speed: math.Inf(1)}, true)
	if s.VolumeBoost != settings.VolumeBoostMin {
		t.Fatalf("NaN boost = %v, want minimum", s.VolumeBoost)
	}
	if s.Speed != settings.SpeedMin {
		t.Fatalf("Inf speed = %v, want minimum", s.Speed)
	}
}

func TestIsPassthrough(t *testing.T) {
	if !settings.Defaults().IsPassthrough() {
		t.Fatal("defaults should be passthrough")
	}
	boosted := settings.Defaults()
	boosted.VolumeBoost = 2.0
	if boosted.IsPassthrough() {
		t.Fatal("boosted settings should not be passthrough")
	}
	night := settings.Defaults()
	night.NightMode = true
	if night.IsPassthrough() {
		t.Fatal("night mode settings should not be passthrough")
	}
}

func TestNormalizeHostname(t *testing.T) {
	cases := map[string]string{
		"WWW.Video.Example.": "video.example",
		" video.example ":    "video.example",
		"www.example.com":    "example.com",
	}
	for in, want := range cases {
		if got := settings.NormalizeHostname(in); got != want {
			t.Errorf("NormalizeHostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSiteLabel(t *testing.T) {
	cases := map[string]string{
		"video.example-site.com": "Example Site",
		"example.com":            "Example",
		"localhost":              "Localhost",
		"":                       "Unknown Site",
	}
	for in, want := range cases {
		if got := settings.SiteLabel(in); got != want {
			t.Errorf("SiteLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
