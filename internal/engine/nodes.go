package engine

import "math"

// gainNode scales samples by a value that moves toward its target along a
// linear per-sample ramp. Parameter changes never jump, which is what keeps
// routing switches glitch-free.
type gainNode struct {
	value  float64
	target float64
	step   float64
}

func newGainNode(value float64) *gainNode {
	return &gainNode{value: value, target: value}
}

// setTarget begins a linear ramp toward v over rampSamples samples.
func (g *gainNode) setTarget(v float64, rampSamples int) {
	g.target = v
	if rampSamples <= 0 || g.value == v {
		g.value = v
		g.step = 0
		return
	}
	g.step = (v - g.value) / float64(rampSamples)
}

// next advances the ramp by one sample and returns the current gain.
func (g *gainNode) next() float64 {
	if g.step != 0 {
		g.value += g.step
		if (g.step > 0 && g.value >= g.target) || (g.step < 0 && g.value <= g.target) {
			g.value = g.target
			g.step = 0
		}
	}
	return g.value
}

// CompressorPreset is a fixed parameter set for the shared dynamics
// compressor. Exactly two presets exist; there is no intermediate blend.
type CompressorPreset struct {
	ThresholdDB float64
	KneeDB      float64
	Ratio       float64
	AttackSec   float64
	ReleaseSec  float64
}

// NightPreset flattens dynamic range hard: quiet passages come up, peaks
// come down.
var NightPreset = CompressorPreset{
	ThresholdDB: -50,
	KneeDB:      40,
	Ratio:       12,
	AttackSec:   0.003,
	ReleaseSec:  0.25,
}

// GentlePreset is the default light touch used when night mode is off but
// the wet path is engaged.
var GentlePreset = CompressorPreset{
	ThresholdDB: -24,
	KneeDB:      30,
	Ratio:       2,
	AttackSec:   0.01,
	ReleaseSec:  0.3,
}

// compressorNode is a feed-forward soft-knee compressor with an envelope
// follower. One instance is shared per pipeline; night mode swaps presets
// rather than nodes.
type compressorNode struct {
	sampleRate float64
	preset     CompressorPreset
	attack     float64
	release    float64
	envelopeDB float64
}

func newCompressorNode(sampleRate float64, preset CompressorPreset) *compressorNode {
	c := &compressorNode{sampleRate: sampleRate, envelopeDB: -120}
	c.setPreset(preset)
	return c
}

func (c *compressorNode) setPreset(preset CompressorPreset) {
	c.preset = preset
	c.attack = timeCoefficient(preset.AttackSec, c.sampleRate)
	c.release = timeCoefficient(preset.ReleaseSec, c.sampleRate)
}

func timeCoefficient(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * sampleRate))
}

// process compresses one sample.
func (c *compressorNode) process(sample float64) float64 {
	levelDB := amplitudeToDB(math.Abs(sample))

	// Envelope follower with separate attack/release smoothing.
	coeff := c.release
	if levelDB > c.envelopeDB {
		coeff = c.attack
	}
	c.envelopeDB = coeff*c.envelopeDB + (1-coeff)*levelDB

	reductionDB := c.gainReductionDB(c.envelopeDB)
	return sample * dbToAmplitude(reductionDB)
}

// gainReductionDB computes the soft-knee gain curve for an input level.
func (c *compressorNode) gainReductionDB(levelDB float64) float64 {
	threshold := c.preset.ThresholdDB
	knee := c.preset.KneeDB
	ratio := c.preset.Ratio

	over := levelDB - threshold
	switch {
	case over <= -knee/2:
		return 0
	case over < knee/2:
		// Quadratic interpolation through the knee region.
		x := over + knee/2
		return (1/ratio - 1) * x * x / (2 * knee)
	default:
		return (1/ratio - 1) * over
	}
}

func amplitudeToDB(amp float64) float64 {
	if amp < 1e-6 {
		return -120
	}
	return 20 * math.Log10(amp)
}

func dbToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

// analyzerNode taps the wet path into a ring buffer sized for one FFT
// window so spectrum frames can be computed on demand.
type analyzerNode struct {
	ring []float64
	pos  int
	seen int
}

func newAnalyzerNode(windowSize int) *analyzerNode {
	return &analyzerNode{ring: make([]float64, windowSize)}
}

func (a *analyzerNode) write(sample float64) {
	a.ring[a.pos] = sample
	a.pos = (a.pos + 1) % len(a.ring)
	if a.seen < len(a.ring) {
		a.seen++
	}
}

// snapshot copies the most recent window in chronological order.
func (a *analyzerNode) snapshot() []float64 {
	out := make([]float64, len(a.ring))
	for i := range a.ring {
		out[i] = a.ring[(a.pos+i)%len(a.ring)]
	}
	return out
}

func (a *analyzerNode) hasData() bool {
	return a.seen > 0
}
