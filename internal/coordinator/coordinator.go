package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"amp/internal/config"
	"amp/internal/engine"
	"amp/internal/entitlement"
	"amp/internal/logging"
	"amp/internal/media"
	"amp/internal/notifications"
	"amp/internal/playback"
	"amp/internal/settings"
	"amp/internal/store"
)

// Coordinator wires entitlement, per-site settings, the routing engine,
// and media discovery together. It owns the init sequence (resolve, load,
// apply, watch) and re-derives element state from scratch whenever the
// persisted store changes, so both execution contexts converge on the same
// state without ever exchanging it directly.
type Coordinator struct {
	cfg      *config.Config
	store    *store.Store
	engine   *engine.Engine
	resolver *entitlement.Resolver
	notifier notifications.Service
	logger   *slog.Logger

	media      *media.Watcher
	devices    *media.DeviceMonitor
	storeWatch *store.Watcher

	mu         sync.Mutex
	res        entitlement.Resolution
	trialTimer *time.Timer
	started    bool
	watching   bool

	stop chan struct{}
	done chan struct{}
}

func New(
	cfg *config.Config,
	st *store.Store,
	eng *engine.Engine,
	resolver *entitlement.Resolver,
	provider media.Provider,
	notifier notifications.Service,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	c := &Coordinator{
		cfg:      cfg,
		store:    st,
		engine:   eng,
		resolver: resolver,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "coordinator"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	c.media = media.NewWatcher(provider, media.Hooks{
		Attach: c.onElementAttached,
		Detach: c.onElementDetached,
	}, time.Duration(cfg.Watcher.PollSeconds)*time.Second, logger)
	c.storeWatch = store.NewWatcher(st, time.Duration(cfg.Sync.StorePollMillis)*time.Millisecond, logger)
	return c
}

// Start runs the init sequence: resolve entitlement, discover media and
// apply stored settings to every element, then begin watching the store
// for cross-context changes.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	c.resolver.OnTrialEnded(func(hookCtx context.Context) {
		c.logger.Info("trial expired, reverting to free tier",
			logging.String(logging.FieldEventType, "trial_ended"))
		if err := c.notifier.NotifyTrialEnded(hookCtx); err != nil {
			c.logger.Warn("trial-ended notification failed", logging.Error(err))
		}
	})

	c.refreshResolution(ctx)

	c.media.Start(ctx)
	if c.cfg.Watcher.DeviceEvents {
		c.devices = media.NewDeviceMonitor(c.logger, c.media.Kick)
		if err := c.devices.Start(ctx); err != nil {
			return err
		}
	}

	if err := c.storeWatch.Start(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.watching = true
	c.mu.Unlock()
	go c.watchStore(ctx)

	c.logger.Info("coordinator started",
		logging.Bool("effective_pro", c.resolution().EffectivePro),
		logging.Int("elements", len(c.media.Snapshot())))
	return nil
}

// Stop halts watchers. Elements keep their last applied state.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	watching := c.watching
	if c.trialTimer != nil {
		c.trialTimer.Stop()
		c.trialTimer = nil
	}
	c.mu.Unlock()

	close(c.stop)
	c.storeWatch.Stop()
	if c.devices != nil {
		c.devices.Stop()
	}
	c.media.Stop()
	if watching {
		<-c.done
	}
}

// watchStore consumes store change events. Every event triggers a full
// re-derivation: state is never carried across the store boundary, only
// re-read from it.
func (c *Coordinator) watchStore(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case change, ok := <-c.storeWatch.Events():
			if !ok {
				return
			}
			switch change.Scope {
			case store.ScopeEntitlement:
				c.logger.Debug("entitlement changed in store")
				c.refreshResolution(ctx)
				c.applyAll(ctx)
			case store.ScopeSettings:
				c.logger.Debug("settings changed in store")
				c.applyAll(ctx)
			default:
				c.logger.Debug("store changed", logging.String("scope", string(change.Scope)))
			}
		}
	}
}

// refreshResolution re-resolves entitlement, caches the result, and arms a
// timer at the trial expiry boundary so the downgrade is applied promptly
// instead of waiting for the next external event.
func (c *Coordinator) refreshResolution(ctx context.Context) {
	res, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.logger.Warn("entitlement resolution failed, assuming free tier",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state database"))
		res = entitlement.Resolution{}
	}

	c.mu.Lock()
	c.res = res
	if c.trialTimer != nil {
		c.trialTimer.Stop()
		c.trialTimer = nil
	}
	if res.TrialRemaining > 0 {
		c.trialTimer = time.AfterFunc(res.TrialRemaining+time.Second, func() {
			c.refreshResolution(context.Background())
			c.applyAll(context.Background())
		})
	}
	c.mu.Unlock()
}

func (c *Coordinator) resolution() entitlement.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.res
}

// settingsFor loads, clamps, and returns the effective settings for a
// hostname under the current entitlement. Missing or unreadable records
// fall back to defaults.
func (c *Coordinator) settingsFor(ctx context.Context, hostname string) settings.Settings {
	s, found, err := c.store.SettingsFor(ctx, hostname)
	if err != nil {
		c.logger.Warn("settings load failed, using defaults",
			logging.Error(err),
			logging.String(logging.FieldHostname, hostname))
		s = settings.Defaults()
	} else if !found {
		s = settings.Defaults()
	}
	return settings.ClampSettings(s, c.resolution().EffectivePro)
}

func (c *Coordinator) onElementAttached(el engine.MediaElement) {
	c.applyTo(context.Background(), el)
}

func (c *Coordinator) onElementDetached(elementID string) {
	c.engine.Detach(elementID)
}

// applyTo pushes the element's effective settings into the routing engine
// and the element's playback rate. Engine failures never surface: the
// element keeps playing untouched.
func (c *Coordinator) applyTo(ctx context.Context, el engine.MediaElement) {
	s := c.settingsFor(ctx, el.Hostname())
	if err := c.engine.Apply(el, s); err != nil {
		c.logger.Warn("engine apply failed",
			logging.Error(err),
			logging.String(logging.FieldElementID, el.ID()))
	}
	rate := playback.Derive(s.Speed, s.PitchSemitones)
	el.SetPlaybackRate(rate.PlaybackRate, rate.PreservePitch)
}

func (c *Coordinator) applyAll(ctx context.Context) {
	for _, el := range c.media.Snapshot() {
		c.applyTo(ctx, el)
	}
}
