package engine

// MediaElement is the engine's view of a media source hosted elsewhere
// (discovery and lifetime belong to the media watcher).
type MediaElement interface {
	// ID uniquely identifies the element for the life of the process.
	ID() string
	// Hostname labels the site the element belongs to.
	Hostname() string
	// Source opens the element's PCM stream for graph attachment. Opening a
	// second source over the same element corrupts the underlying stream,
	// so the engine guarantees at most one call per element. An error means
	// the element's samples are not readable (the cross-origin case) and is
	// terminal for the element.
	Source() (SampleSource, error)
	// SetPlaybackRate adjusts playback speed, optionally disabling native
	// pitch preservation.
	SetPlaybackRate(rate float64, preservePitch bool)
	// Playing reports whether the element is currently producing audio.
	Playing() bool
}

// SampleSource delivers mono float32 PCM blocks from a media element.
type SampleSource interface {
	// ReadBlock fills dst and returns the number of samples written.
	// io.EOF ends the stream.
	ReadBlock(dst []float32) (int, error)
	Close() error
}

// Sink receives processed PCM from a pipeline. The default sink discards
// samples; rendering to an output device is outside the engine's scope.
type Sink interface {
	WriteBlock(src []float32) error
}

type discardSink struct{}

func (discardSink) WriteBlock([]float32) error { return nil }
