package engine

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"amp/internal/config"
	"amp/internal/logging"
	"amp/internal/settings"
)

func testEngineConfig() config.Engine {
	return config.Engine{
		SampleRate:   48000,
		BlockSize:    1024,
		SpectrumBars: 24,
		RampMillis:   20,
	}
}

type fakeElement struct {
	id          string
	hostname    string
	playing     bool
	sourceErr   error
	sourceCalls atomic.Int64
	blocks      int
}

func (f *fakeElement) ID() string       { return f.id }
func (f *fakeElement) Hostname() string { return f.hostname }
func (f *fakeElement) Playing() bool    { return f.playing }

func (f *fakeElement) SetPlaybackRate(rate float64, preservePitch bool) {}

func (f *fakeElement) Source() (SampleSource, error) {
	f.sourceCalls.Add(1)
	if f.sourceErr != nil {
		return nil, f.sourceErr
	}
	return newSineSource(440, 48000, f.blocks), nil
}

// sineSource emits a fixed number of sine blocks, then parks until closed
// so the pump does not spin.
type sineSource struct {
	freq       float64
	sampleRate float64
	remaining  int
	phase      float64
	closed     chan struct{}
}

func newSineSource(freq, sampleRate float64, blocks int) *sineSource {
	return &sineSource{freq: freq, sampleRate: sampleRate, remaining: blocks, closed: make(chan struct{})}
}

func (s *sineSource) ReadBlock(dst []float32) (int, error) {
	if s.remaining <= 0 {
		<-s.closed
		return 0, errors.New("source closed")
	}
	s.remaining--
	step := 2 * math.Pi * s.freq / s.sampleRate
	for i := range dst {
		dst[i] = float32(0.5 * math.Sin(s.phase))
		s.phase += step
	}
	return len(dst), nil
}

func (s *sineSource) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestApplyPassthroughSkipsPipeline(t *testing.T) {
	eng := New(testEngineConfig(), logging.NewNop())
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: true, blocks: 4}
	if err := eng.Apply(el, settings.Defaults()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if eng.PipelineCount() != 0 {
		t.Fatalf("passthrough constructed %d pipelines, want 0", eng.PipelineCount())
	}
	if calls := el.sourceCalls.Load(); calls != 0 {
		t.Fatalf("passthrough captured audio %d times, want 0", calls)
	}
}

func TestApplyConstructsExactlyOnePipeline(t *testing.T) {
	eng := New(testEngineConfig(), logging.NewNop())
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: true, blocks: 4}
	boosted := settings.Settings{VolumeBoost: 2, Speed: 1}
	if err := eng.Apply(el, boosted); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if err := eng.Apply(el, boosted); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if eng.PipelineCount() != 1 {
		t.Fatalf("got %d pipelines, want 1", eng.PipelineCount())
	}
	if calls := el.sourceCalls.Load(); calls != 1 {
		t.Fatalf("captured audio %d times, want 1", calls)
	}
}

func TestApplyFailsOpenAndBlocksElement(t *testing.T) {
	eng := New(testEngineConfig(), logging.NewNop())
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: true, sourceErr: errors.New("cross-origin stream")}
	boosted := settings.Settings{VolumeBoost: 2, Speed: 1}
	if err := eng.Apply(el, boosted); err != nil {
		t.Fatalf("Apply should fail open, got %v", err)
	}
	if !eng.Blocked(el.id) {
		t.Fatal("element should be blocked after capture failure")
	}

	if err := eng.Apply(el, boosted); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if calls := el.sourceCalls.Load(); calls != 1 {
		t.Fatalf("capture retried: %d calls, want 1", calls)
	}

	// Detach clears the block so a recreated element starts fresh.
	eng.Detach(el.id)
	el.sourceErr = nil
	el.blocks = 2
	if err := eng.Apply(el, boosted); err != nil {
		t.Fatalf("Apply after detach: %v", err)
	}
	if eng.PipelineCount() != 1 {
		t.Fatalf("got %d pipelines after detach, want 1", eng.PipelineCount())
	}
}

func TestContextFactoryFailureBlocks(t *testing.T) {
	factory := func(config.Engine) (*graphContext, error) {
		return nil, errors.New("no audio device")
	}
	eng := New(testEngineConfig(), logging.NewNop(), WithContextFactory(factory))
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: true, blocks: 2}
	if err := eng.Apply(el, settings.Settings{VolumeBoost: 2, Speed: 1}); err != nil {
		t.Fatalf("Apply should fail open, got %v", err)
	}
	if !eng.Blocked(el.id) {
		t.Fatal("element should be blocked when graph context creation fails")
	}
	if eng.PipelineCount() != 0 {
		t.Fatalf("got %d pipelines, want 0", eng.PipelineCount())
	}
}

func TestSampleSpectrumPausedElement(t *testing.T) {
	eng := New(testEngineConfig(), logging.NewNop())
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: false, blocks: 2}
	frame := eng.SampleSpectrum(el)
	if frame.Active {
		t.Fatal("paused element reported an active frame")
	}
	if len(frame.Levels) != 0 {
		t.Fatalf("paused element reported %d levels, want 0", len(frame.Levels))
	}
}

func TestSampleSpectrumPlayingElement(t *testing.T) {
	cfg := testEngineConfig()
	eng := New(cfg, logging.NewNop())
	defer eng.Close()

	el := &fakeElement{id: "el-1", hostname: "example.com", playing: true, blocks: 8}
	// First sample constructs the pipeline; the pump needs a moment to fill
	// the analyzer window.
	ok := waitFor(t, 2*time.Second, func() bool {
		frame := eng.SampleSpectrum(el)
		if !frame.Active || len(frame.Levels) != cfg.SpectrumBars {
			return false
		}
		peak := 0.0
		for _, level := range frame.Levels {
			if level < 0 || level > 1 {
				t.Fatalf("level %v out of range [0,1]", level)
			}
			if level > peak {
				peak = level
			}
		}
		return peak > 0
	})
	if !ok {
		t.Fatal("never observed an active spectrum frame with signal")
	}
	if calls := el.sourceCalls.Load(); calls != 1 {
		t.Fatalf("captured audio %d times, want 1", calls)
	}
}

func TestSelectorGainsSumToUnityDuringCrossfade(t *testing.T) {
	graph := &graphContext{sampleRate: 48000, blockSize: 64, rampSamples: 480}
	p := newPipeline(graph, "el-1", newSineSource(440, 48000, 0), discardSink{}, logging.NewNop())
	defer p.source.Close()

	p.apply(settings.Settings{VolumeBoost: 2, Speed: 1, NightMode: true})

	in := make([]float32, 16)
	out := make([]float32, 16)
	for block := 0; block < 40; block++ {
		p.processBlock(in, out)
		sum := p.compSelect.value + p.bypassSelect.value
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("selector gains sum to %v mid-crossfade, want 1", sum)
		}
	}
	if math.Abs(p.compSelect.value-1) > 1e-9 {
		t.Fatalf("compressor selector settled at %v, want 1", p.compSelect.value)
	}
}

func TestPipelinePassthroughSettingsRestoreDryPath(t *testing.T) {
	graph := &graphContext{sampleRate: 48000, blockSize: 64, rampSamples: 0}
	p := newPipeline(graph, "el-1", newSineSource(440, 48000, 0), discardSink{}, logging.NewNop())
	defer p.source.Close()

	p.apply(settings.Settings{VolumeBoost: 3, Speed: 1})
	p.apply(settings.Defaults())

	in := []float32{0.25, -0.25, 0.5, -0.5}
	out := make([]float32, len(in))
	p.processBlock(in, out)
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1e-6 {
			t.Fatalf("sample %d changed in passthrough: in=%v out=%v", i, in[i], out[i])
		}
	}
}

func TestGainNodeRampIsMonotonic(t *testing.T) {
	g := newGainNode(0)
	g.setTarget(1, 100)
	prev := 0.0
	for i := 0; i < 100; i++ {
		v := g.next()
		if v < prev {
			t.Fatalf("ramp regressed at sample %d: %v < %v", i, v, prev)
		}
		prev = v
	}
	if math.Abs(g.next()-1) > 1e-9 {
		t.Fatalf("ramp never reached target, at %v", g.value)
	}
}

func TestCompressorReducesLoudSignal(t *testing.T) {
	c := newCompressorNode(48000, NightPreset)
	var out float64
	for i := 0; i < 48000; i++ {
		out = c.process(0.9)
	}
	if out >= 0.9 {
		t.Fatalf("night compressor did not attenuate loud input: %v", out)
	}

	gentle := newCompressorNode(48000, GentlePreset)
	var quiet float64
	for i := 0; i < 48000; i++ {
		quiet = gentle.process(0.01)
	}
	if math.Abs(quiet-0.01) > 1e-3 {
		t.Fatalf("gentle compressor attenuated signal below threshold: %v", quiet)
	}
}
