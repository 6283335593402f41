package media

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"amp/internal/engine"
	"amp/internal/logging"
)

// Hooks receive element lifecycle events from the watcher. Attach fires
// once per discovered element, Detach once when it disappears or the
// provider generation rolls over.
type Hooks struct {
	Attach func(el engine.MediaElement)
	Detach func(elementID string)
}

// Watcher polls a Provider for media elements and keeps a live snapshot.
// Discovery is poll-driven; Kick forces an immediate rescan, which is how
// the hotplug monitor shortens the latency between new sound hardware and
// the first attach.
type Watcher struct {
	provider Provider
	hooks    Hooks
	interval time.Duration
	logger   *slog.Logger

	kick chan struct{}
	stop chan struct{}
	done chan struct{}

	mu         sync.Mutex
	known      map[string]engine.MediaElement
	generation string
	started    bool
}

func NewWatcher(provider Provider, hooks Hooks, interval time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		provider: provider,
		hooks:    hooks,
		interval: interval,
		logger:   logger.With(logging.String(logging.FieldComponent, "media-watcher")),
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		known:    make(map[string]engine.MediaElement),
	}
}

// Start scans once synchronously, then polls until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.scan()
	go w.loop(ctx)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.kick:
			w.scan()
		case <-ticker.C:
			w.scan()
		}
	}
}

// Kick requests an immediate rescan. Safe to call from any goroutine;
// coalesces with an already-pending kick.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Stop halts polling. Known elements stay attached; teardown is the
// owner's job.
func (w *Watcher) Stop() {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
}

func (w *Watcher) scan() {
	gen, err := w.provider.Generation()
	if err != nil {
		w.logger.Warn("generation check failed", logging.Error(err))
		return
	}

	w.mu.Lock()
	resync := w.generation != "" && gen != w.generation
	w.generation = gen
	w.mu.Unlock()

	if resync {
		w.logger.Debug("element set replaced, resyncing", logging.String("generation", gen))
		w.detachAll()
	}

	elements, err := w.provider.Elements()
	if err != nil {
		w.logger.Warn("element discovery failed", logging.Error(err))
		return
	}

	current := make(map[string]engine.MediaElement, len(elements))
	for _, el := range elements {
		current[el.ID()] = el
	}

	var attached []engine.MediaElement
	var detached []string
	w.mu.Lock()
	for id, el := range current {
		if _, ok := w.known[id]; !ok {
			w.known[id] = el
			attached = append(attached, el)
		}
	}
	for id := range w.known {
		if _, ok := current[id]; !ok {
			delete(w.known, id)
			detached = append(detached, id)
		}
	}
	w.mu.Unlock()

	for _, id := range detached {
		w.logger.Debug("element removed", logging.String(logging.FieldElementID, id))
		if w.hooks.Detach != nil {
			w.hooks.Detach(id)
		}
	}
	for _, el := range attached {
		w.logger.Debug("element discovered",
			logging.String(logging.FieldElementID, el.ID()),
			logging.String(logging.FieldHostname, el.Hostname()))
		if w.hooks.Attach != nil {
			w.hooks.Attach(el)
		}
	}
}

func (w *Watcher) detachAll() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.known))
	for id := range w.known {
		ids = append(ids, id)
	}
	w.known = make(map[string]engine.MediaElement)
	w.mu.Unlock()

	if w.hooks.Detach == nil {
		return
	}
	for _, id := range ids {
		w.hooks.Detach(id)
	}
}

// HasMedia reports whether any element is currently known.
func (w *Watcher) HasMedia() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.known) > 0
}

// Snapshot returns the currently known elements.
func (w *Watcher) Snapshot() []engine.MediaElement {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]engine.MediaElement, 0, len(w.known))
	for _, el := range w.known {
		out = append(out, el)
	}
	return out
}

// ByHostname returns the known elements whose hostname matches.
func (w *Watcher) ByHostname(hostname string) []engine.MediaElement {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []engine.MediaElement
	for _, el := range w.known {
		if el.Hostname() == hostname {
			out = append(out, el)
		}
	}
	return out
}
