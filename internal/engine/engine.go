package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"amp/internal/config"
	"amp/internal/logging"
	"amp/internal/settings"
)

// graphContext holds the shared processing parameters for every pipeline.
// It is created lazily on the first element that actually needs routing so
// passthrough sessions never pay for it.
type graphContext struct {
	sampleRate  int
	blockSize   int
	rampSamples int
}

// ContextFactory builds the shared graph context. Overridable so tests can
// exercise the creation-failure path.
type ContextFactory func(cfg config.Engine) (*graphContext, error)

func defaultContextFactory(cfg config.Engine) (*graphContext, error) {
	if cfg.BlockSize <= 0 || cfg.BlockSize&(cfg.BlockSize-1) != 0 {
		return nil, fmt.Errorf("block size %d is not a power of two", cfg.BlockSize)
	}
	return &graphContext{
		sampleRate:  cfg.SampleRate,
		blockSize:   cfg.BlockSize,
		rampSamples: cfg.SampleRate * cfg.RampMillis / 1000,
	}, nil
}

// Frame is one spectrum sample. Active distinguishes "nothing playing"
// from "playing silence": a silent but playing element reports Active with
// all-zero levels.
type Frame struct {
	Active bool      `json:"active"`
	Levels []float64 `json:"levels"`
}

// Engine owns the per-element pipelines. Apply is fail-open: an element
// whose audio cannot be captured keeps playing untouched, and the failure
// is remembered so the capture is never retried.
type Engine struct {
	cfg        config.Engine
	logger     *slog.Logger
	sink       Sink
	newContext ContextFactory

	mu          sync.Mutex
	graph       *graphContext
	graphFailed bool
	registry    *ElementRegistry
}

// Option adjusts Engine construction.
type Option func(*Engine)

// WithSink routes processed blocks to dst instead of discarding them.
func WithSink(dst Sink) Option {
	return func(e *Engine) { e.sink = dst }
}

// WithContextFactory replaces the graph context constructor.
func WithContextFactory(factory ContextFactory) Option {
	return func(e *Engine) { e.newContext = factory }
}

func New(cfg config.Engine, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	e := &Engine{
		cfg:        cfg,
		logger:     logger.With(logging.String(logging.FieldComponent, "engine")),
		sink:       discardSink{},
		newContext: defaultContextFactory,
		registry:   newElementRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply routes el according to s. Passthrough settings on an element with
// no pipeline are a no-op: no graph context and no pipeline are created.
// Any failure to capture the element's audio blocks that element and
// returns nil so playback continues untouched.
func (e *Engine) Apply(el MediaElement, s settings.Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.registry.pipeline(el.ID()); ok {
		p.apply(s)
		return nil
	}
	if s.IsPassthrough() {
		return nil
	}

	p, err := e.attachLocked(el)
	if err != nil {
		return nil
	}
	p.apply(s)
	return nil
}

// SampleSpectrum returns one spectrum frame for el. The pipeline is
// created on demand using the same idempotent path as Apply, so a meter
// opened before any enhancement still sees data. A paused or blocked
// element reports an inactive frame with no levels.
func (e *Engine) SampleSpectrum(el MediaElement) Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.registry.pipeline(el.ID())
	if !ok {
		var err error
		p, err = e.attachLocked(el)
		if err != nil {
			return Frame{Active: false, Levels: []float64{}}
		}
	}
	if !el.Playing() {
		return Frame{Active: false, Levels: []float64{}}
	}
	return Frame{Active: true, Levels: p.spectrum(e.cfg.SpectrumBars)}
}

// attachLocked builds a pipeline for el, calling Source at most once per
// element lifetime. Callers must hold e.mu.
func (e *Engine) attachLocked(el MediaElement) (*Pipeline, error) {
	id := el.ID()
	if e.registry.isBlocked(id) {
		return nil, fmt.Errorf("element %s is blocked", id)
	}

	graph, err := e.graphLocked()
	if err != nil {
		e.registry.block(id)
		return nil, err
	}

	source, err := el.Source()
	if err != nil {
		e.registry.block(id)
		e.logger.Warn("audio capture failed, leaving element untouched",
			logging.Error(err),
			logging.String(logging.FieldElementID, id),
			logging.String(logging.FieldHostname, el.Hostname()))
		return nil, err
	}

	p := newPipeline(graph, id, source, e.sink, e.logger)
	e.registry.add(id, p)
	go p.run()
	e.logger.Debug("pipeline attached",
		logging.String(logging.FieldElementID, id),
		logging.String(logging.FieldHostname, el.Hostname()))
	return p, nil
}

func (e *Engine) graphLocked() (*graphContext, error) {
	if e.graph != nil {
		return e.graph, nil
	}
	if e.graphFailed {
		return nil, fmt.Errorf("graph context unavailable")
	}
	graph, err := e.newContext(e.cfg)
	if err != nil {
		e.graphFailed = true
		e.logger.Error("graph context creation failed", logging.Error(err))
		return nil, err
	}
	e.graph = graph
	e.logger.Debug("graph context created",
		logging.Int("sample_rate", graph.sampleRate),
		logging.Int("block_size", graph.blockSize))
	return graph, nil
}

// Detach tears down the element's pipeline, if any, and clears its blocked
// state so a recreated element with the same identity starts fresh.
func (e *Engine) Detach(elementID string) {
	e.mu.Lock()
	p, ok := e.registry.remove(elementID)
	e.mu.Unlock()
	if ok {
		p.teardown()
		e.logger.Debug("pipeline detached", logging.String(logging.FieldElementID, elementID))
	}
}

// PipelineCount reports how many live pipelines exist.
func (e *Engine) PipelineCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.count()
}

// HasPipeline reports whether elementID owns a live pipeline.
func (e *Engine) HasPipeline(elementID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.registry.pipeline(elementID)
	return ok
}

// Blocked reports whether elementID has been permanently blocked.
func (e *Engine) Blocked(elementID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.isBlocked(elementID)
}

// Resume reports whether a graph context exists to resume. Contexts start
// running, so this is a no-op beyond acknowledging the request.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph != nil
}

// Close tears down every pipeline.
func (e *Engine) Close() {
	e.mu.Lock()
	drained := e.registry.drain()
	e.mu.Unlock()
	for _, p := range drained {
		p.teardown()
	}
}
