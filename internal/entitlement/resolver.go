package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"amp/internal/logging"
	"amp/internal/store"
)

// TrialDuration is the fixed length of the one-shot trial window.
const TrialDuration = 15 * time.Minute

// Sentinel errors for trial management. Callers treat these as benign
// rejections rather than faults.
var (
	ErrLicensed      = errors.New("license already active")
	ErrTrialActive   = errors.New("trial already running")
	ErrTrialConsumed = errors.New("trial already used")
)

// Resolution is the derived capability level at a point in time.
type Resolution struct {
	EffectivePro   bool
	TrialRemaining time.Duration
}

// Resolver derives the effective capability level from the persisted
// license flag and trial timestamp. It owns the trial expiry transition:
// the persistent clear of the trial timestamp and the one-shot
// trial-ended signal.
type Resolver struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	onTrialEnded func(context.Context)
}

// NewResolver constructs a resolver over the given store.
func NewResolver(st *store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logging.NewComponentLogger(logger, "entitlement"),
		now:    time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// OnTrialEnded registers a hook invoked exactly once per trial expiry.
func (r *Resolver) OnTrialEnded(fn func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onTrialEnded = fn
}

// Resolve reads the stored entitlement and derives the effective level.
// An expired trial is consumed here: the timestamp is cleared in the store
// before the result is returned, so the expiry is observed at most once.
func (r *Resolver) Resolve(ctx context.Context) (Resolution, error) {
	r.mu.Lock()
	res, ended, err := r.resolveLocked(ctx)
	hook := r.onTrialEnded
	r.mu.Unlock()

	if ended && hook != nil {
		hook(ctx)
	}
	return res, err
}

// resolveLocked reports whether this call consumed an expired trial. The
// trial-ended hook must be fired by the caller after releasing r.mu: hooks
// may block (notifications) or call back into the resolver.
func (r *Resolver) resolveLocked(ctx context.Context) (Resolution, bool, error) {
	ent, err := r.store.Entitlement(ctx)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("read entitlement: %w", err)
	}

	if ent.Licensed {
		return Resolution{EffectivePro: true}, false, nil
	}

	if ent.TrialStart == nil {
		return Resolution{}, false, nil
	}

	elapsed := r.now().Sub(*ent.TrialStart)
	if elapsed >= TrialDuration {
		if err := r.store.ClearTrialStart(ctx); err != nil {
			return Resolution{}, false, fmt.Errorf("consume trial: %w", err)
		}
		r.logger.Info("trial expired",
			logging.String(logging.FieldEventType, "trial_expired"),
			logging.Duration("overshoot", elapsed-TrialDuration))
		return Resolution{}, true, nil
	}

	remaining := TrialDuration - elapsed
	if remaining > TrialDuration {
		remaining = TrialDuration
	}
	return Resolution{EffectivePro: true, TrialRemaining: remaining}, false, nil
}

// StartTrial begins the trial window. It is rejected while a license is
// active (the license wins), while a trial is already running (calling it
// again must not reset the clock), and once a trial has been consumed
// (the window is not renewable).
func (r *Resolver) StartTrial(ctx context.Context) (Resolution, error) {
	r.mu.Lock()
	res, ended, err := r.startTrialLocked(ctx)
	hook := r.onTrialEnded
	r.mu.Unlock()

	if ended && hook != nil {
		hook(ctx)
	}
	return res, err
}

func (r *Resolver) startTrialLocked(ctx context.Context) (Resolution, bool, error) {
	current, ended, err := r.resolveLocked(ctx)
	if err != nil {
		return Resolution{}, ended, err
	}

	ent, err := r.store.Entitlement(ctx)
	if err != nil {
		return Resolution{}, ended, fmt.Errorf("read entitlement: %w", err)
	}
	if ent.Licensed {
		return current, ended, ErrLicensed
	}
	if ent.TrialStart != nil {
		return current, ended, ErrTrialActive
	}
	if ent.TrialConsumed || ended {
		return current, ended, ErrTrialConsumed
	}

	start := r.now().UTC()
	if err := r.store.SetTrialStart(ctx, start); err != nil {
		return Resolution{}, ended, fmt.Errorf("start trial: %w", err)
	}
	r.logger.Info("trial started",
		logging.String(logging.FieldEventType, "trial_started"),
		logging.Duration("duration", TrialDuration))
	return Resolution{EffectivePro: true, TrialRemaining: TrialDuration}, ended, nil
}

// Activate persists the license flag. Any running trial is cleared by the
// store in the same write.
func (r *Resolver) Activate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.SetLicensed(ctx, true); err != nil {
		return fmt.Errorf("activate license: %w", err)
	}
	r.logger.Info("license activated",
		logging.String(logging.FieldEventType, "license_activated"))
	return nil
}

// Deactivate clears the license flag.
func (r *Resolver) Deactivate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.SetLicensed(ctx, false); err != nil {
		return fmt.Errorf("deactivate license: %w", err)
	}
	r.logger.Info("license deactivated",
		logging.String(logging.FieldEventType, "license_deactivated"))
	return nil
}
