package engine

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"amp/internal/logging"
	"amp/internal/settings"
)

// Pipeline is the per-element signal graph: a dry path at unity gain that
// is always connected, and a wet path running pre-gain, the shared
// compressor behind a crossfade selector pair, boost gain, the analyzer
// tap, and wet gain. Routing switches crossfade selector gains instead of
// changing topology, so a live stream never clicks.
type Pipeline struct {
	id        string
	elementID string
	source    SampleSource
	sink      Sink
	logger    *slog.Logger

	blockSize   int
	rampSamples int

	// mu serializes parameter updates against block processing so dry/wet
	// gains are never observed mid-update.
	mu sync.Mutex

	dryGain      *gainNode
	wetGain      *gainNode
	preGain      *gainNode
	compSelect   *gainNode
	bypassSelect *gainNode
	boostGain    *gainNode
	compressor   *compressorNode
	analyzer     *analyzerNode

	stop chan struct{}
	done chan struct{}
}

func newPipeline(graph *graphContext, elementID string, source SampleSource, sink Sink, logger *slog.Logger) *Pipeline {
	p := &Pipeline{
		id:          uuid.NewString(),
		elementID:   elementID,
		source:      source,
		sink:        sink,
		logger:      logger,
		blockSize:   graph.blockSize,
		rampSamples: graph.rampSamples,

		dryGain:      newGainNode(1),
		wetGain:      newGainNode(0),
		preGain:      newGainNode(1),
		compSelect:   newGainNode(0),
		bypassSelect: newGainNode(1),
		boostGain:    newGainNode(1),
		compressor:   newCompressorNode(float64(graph.sampleRate), GentlePreset),
		analyzer:     newAnalyzerNode(graph.blockSize),

		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	return p
}

// ID returns the pipeline identity.
func (p *Pipeline) ID() string {
	return p.id
}

// apply atomically retargets every parameter for the given settings. The
// selector pair ramps in lockstep so its gains always sum to unity.
func (p *Pipeline) apply(s settings.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ramp := p.rampSamples
	if s.IsPassthrough() {
		p.dryGain.setTarget(1, ramp)
		p.wetGain.setTarget(0, ramp)
		return
	}

	p.dryGain.setTarget(0, ramp)
	p.wetGain.setTarget(1, ramp)
	p.boostGain.setTarget(s.VolumeBoost, ramp)
	if s.NightMode {
		p.compressor.setPreset(NightPreset)
		p.compSelect.setTarget(1, ramp)
		p.bypassSelect.setTarget(0, ramp)
	} else {
		p.compressor.setPreset(GentlePreset)
		p.compSelect.setTarget(0, ramp)
		p.bypassSelect.setTarget(1, ramp)
	}
}

// processBlock runs in samples through the graph into out. Both slices
// must be the same length.
func (p *Pipeline) processBlock(in, out []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, raw := range in {
		sample := float64(raw)
		dry := sample * p.dryGain.next()

		pre := sample * p.preGain.next()
		compressed := p.compressor.process(pre)
		selected := compressed*p.compSelect.next() + pre*p.bypassSelect.next()
		boosted := selected * p.boostGain.next()
		p.analyzer.write(boosted)
		wet := boosted * p.wetGain.next()

		out[i] = float32(dry + wet)
	}
}

// spectrum computes a downsampled, normalized magnitude frame from the
// analyzer window.
func (p *Pipeline) spectrum(barCount int) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.analyzer.hasData() {
		return make([]float64, barCount)
	}
	return bucketize(spectrumMagnitudes(p.analyzer.snapshot()), barCount)
}

// run pumps source blocks through the graph until the source drains or the
// pipeline is torn down.
func (p *Pipeline) run() {
	defer close(p.done)

	in := make([]float32, p.blockSize)
	out := make([]float32, p.blockSize)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		n, err := p.source.ReadBlock(in)
		if n > 0 {
			p.processBlock(in[:n], out[:n])
			if sinkErr := p.sink.WriteBlock(out[:n]); sinkErr != nil {
				p.logger.Warn("sink write failed",
					logging.Error(sinkErr),
					logging.String(logging.FieldElementID, p.elementID))
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.logger.Warn("source read failed",
					logging.Error(err),
					logging.String(logging.FieldElementID, p.elementID))
			}
			return
		}
	}
}

// teardown stops the pump and releases the source.
func (p *Pipeline) teardown() {
	close(p.stop)
	<-p.done
	_ = p.source.Close()
}
