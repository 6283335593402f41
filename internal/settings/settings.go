package settings

// Field bounds for playback settings. The free plan narrows the volume boost
// ceiling and disallows night mode and pitch shifting entirely.
const (
	VolumeBoostMin     = 1.0
	VolumeBoostMaxPro  = 6.0
	VolumeBoostMaxFree = 3.0

	SpeedMin = 0.1
	SpeedMax = 16.0

	PitchSemitonesMin = -12
	PitchSemitonesMax = 12
)

// Settings is one site's playback configuration, persisted per hostname.
// A Settings value handed to the routing engine must already satisfy the
// current plan's bounds; callers clamp on every read, never trusting storage.
type Settings struct {
	VolumeBoost    float64 `json:"volume_boost"`
	Speed          float64 `json:"speed"`
	NightMode      bool    `json:"night_mode"`
	PitchSemitones int     `json:"pitch_semitones"`
}

// Defaults returns the neutral settings applied to sites with no record.
func Defaults() Settings {
	return Settings{
		VolumeBoost:    1.0,
		Speed:          1.0,
		NightMode:      false,
		PitchSemitones: 0,
	}
}

// IsPassthrough reports whether the settings require no wet-path processing.
// Passthrough settings must never force pipeline construction.
func (s Settings) IsPassthrough() bool {
	return s.VolumeBoost <= 1.0 && !s.NightMode
}
