package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"amp/internal/logging"
)

// Change notifies a subscriber that a revision scope advanced. The payload
// carries no data: subscribers re-derive all downstream state from the store
// rather than applying incremental patches.
type Change struct {
	Scope Scope
}

// Watcher polls the revision counters and emits a Change per scope whose
// counter advanced since the previous poll. This is the eventually
// consistent notification channel between execution contexts; a write made
// by any context (including the subscriber's own) eventually surfaces here.
type Watcher struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	events  chan Change
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWatcher constructs a watcher polling at the given interval.
func NewWatcher(s *Store, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		store:    s,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "store-watcher"),
		events:   make(chan Change, 16),
	}
}

// Events returns the change stream. The channel is closed when the watcher
// stops.
func (w *Watcher) Events() <-chan Change {
	return w.events
}

// Start begins polling until the context is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	baseline, err := w.store.Revisions(ctx)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	go w.poll(watchCtx, baseline)
	return nil
}

// Stop halts polling and closes the event channel.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	<-done
	close(w.events)
}

func (w *Watcher) poll(ctx context.Context, last map[Scope]int64) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := w.store.Revisions(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("revision poll failed", logging.Error(err))
			continue
		}

		for _, scope := range Scopes {
			if current[scope] == last[scope] {
				continue
			}
			last[scope] = current[scope]
			select {
			case w.events <- Change{Scope: scope}:
			case <-ctx.Done():
				return
			default:
				// Subscriber is behind; dropping is safe because events carry
				// no data and the next poll re-detects any further writes.
				w.logger.Debug("change event dropped", logging.String("scope", string(scope)))
			}
		}
	}
}
