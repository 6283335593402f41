package settings

import (
	"math"
	"strconv"
)

// Raw is a loosely typed settings record as it arrives from storage or from
// a control-surface request. Field values may be numbers, booleans, numeric
// strings, or absent; Clamp coerces whatever it finds.
type Raw struct {
	VolumeBoost    any `json:"volume_boost"`
	Speed          any `json:"speed"`
	NightMode      any `json:"night_mode"`
	PitchSemitones any `json:"pitch_semitones"`
}

// Clamp coerces a raw record and bounds it against the given plan tier.
// Missing or unparseable fields take the documented default; non-finite
// numbers fall back to the field minimum; invalid booleans read as false.
// There is no rejection path: any input yields a usable Settings value.
// Clamp is idempotent for a fixed tier.
func Clamp(raw Raw, pro bool) Settings {
	defaults := Defaults()
	s := Settings{
		VolumeBoost:    coerceFloat(raw.VolumeBoost, defaults.VolumeBoost, VolumeBoostMin),
		Speed:          coerceFloat(raw.Speed, defaults.Speed, SpeedMin),
		NightMode:      coerceBool(raw.NightMode),
		PitchSemitones: coerceInt(raw.PitchSemitones, defaults.PitchSemitones, PitchSemitonesMin),
	}
	return ClampSettings(s, pro)
}

// ClampSettings bounds an already-typed record against the given plan tier.
func ClampSettings(s Settings, pro bool) Settings {
	boostMax := VolumeBoostMaxFree
	if pro {
		boostMax = VolumeBoostMaxPro
	}
	s.VolumeBoost = clampFloat(s.VolumeBoost, VolumeBoostMin, boostMax)
	s.Speed = clampFloat(s.Speed, SpeedMin, SpeedMax)
	s.PitchSemitones = clampInt(s.PitchSemitones, PitchSemitonesMin, PitchSemitonesMax)
	if !pro {
		s.NightMode = false
		s.PitchSemitones = 0
	}
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func coerceFloat(value any, def, min float64) float64 {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return min
		}
		return v
	case float32:
		return coerceFloat(float64(v), def, min)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return def
		}
		if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return min
		}
		return parsed
	default:
		return def
	}
}

func coerceInt(value any, def, min int) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return min
		}
		return int(math.Round(v))
	case float32:
		return coerceInt(float64(v), def, min)
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return parsed
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
