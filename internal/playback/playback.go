// Package playback couples playback rate with pitch preservation.
//
// Pitch shifting is achieved by disabling native pitch correction and
// letting the resampling side effect of a changed playback rate move the
// perceived pitch. Perceived speed therefore shifts together with pitch
// whenever semitones != 0. That coupling is an intentional product
// simplification, not something to correct here.
package playback

import "math"

// Rate is the derived playback configuration for a media element.
type Rate struct {
	PlaybackRate  float64
	PreservePitch bool
}

// Derive computes the playback rate and pitch-preservation flag from the
// requested speed and semitone offset. With semitones == 0 speed changes
// alone never alter pitch.
func Derive(speed float64, semitones int) Rate {
	if semitones == 0 {
		return Rate{PlaybackRate: speed, PreservePitch: true}
	}
	return Rate{
		PlaybackRate:  speed * math.Pow(2, float64(semitones)/12),
		PreservePitch: false,
	}
}
