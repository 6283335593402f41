package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"amp/internal/entitlement"
	"amp/internal/logging"
	"amp/internal/store"
	"amp/internal/testsupport"
)

func newResolver(t *testing.T) (*entitlement.Resolver, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return entitlement.NewResolver(st, logging.NewNop()), st
}

func TestResolveUnlicensedNoTrial(t *testing.T) {
	resolver, _ := newResolver(t)

	res, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.EffectivePro {
		t.Fatal("expected free tier")
	}
	if res.TrialRemaining != 0 {
		t.Fatalf("trial remaining = %v, want 0", res.TrialRemaining)
	}
}

func TestResolveLicensed(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	if err := st.SetLicensed(ctx, true); err != nil {
		t.Fatalf("SetLicensed: %v", err)
	}
	res, err := resolver.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.EffectivePro {
		t.Fatal("expected pro")
	}
}

func TestResolveActiveTrial(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	now := time.Now().UTC()
	resolver.SetClock(func() time.Time { return now })
	if err := st.SetTrialStart(ctx, now.Add(-time.Millisecond)); err != nil {
		t.Fatalf("SetTrialStart: %v", err)
	}

	res, err := resolver.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.EffectivePro {
		t.Fatal("expected pro during trial")
	}
	remaining := res.TrialRemaining
	if remaining <= entitlement.TrialDuration-time.Second || remaining > entitlement.TrialDuration {
		t.Fatalf("trial remaining = %v, want just under %v", remaining, entitlement.TrialDuration)
	}
}

func TestResolveExpiredTrialConsumesAndSignalsOnce(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	now := time.Now().UTC()
	resolver.SetClock(func() time.Time { return now })
	if err := st.SetTrialStart(ctx, now.Add(-entitlement.TrialDuration-time.Millisecond)); err != nil {
		t.Fatalf("SetTrialStart: %v", err)
	}

	endedCount := 0
	resolver.OnTrialEnded(func(context.Context) { endedCount++ })

	res, err := resolver.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.EffectivePro {
		t.Fatal("expected free tier after expiry")
	}
	if res.TrialRemaining != 0 {
		t.Fatalf("trial remaining = %v, want 0", res.TrialRemaining)
	}

	ent, err := st.Entitlement(ctx)
	if err != nil {
		t.Fatalf("Entitlement: %v", err)
	}
	if ent.TrialStart != nil {
		t.Fatal("expiry must clear the trial timestamp persistently")
	}

	// Subsequent resolves see no trial; the signal stays one-shot.
	if _, err := resolver.Resolve(ctx); err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	if endedCount != 1 {
		t.Fatalf("trial ended signaled %d times, want 1", endedCount)
	}
}

func TestStartTrialRejectedWhenLicensed(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	if err := st.SetLicensed(ctx, true); err != nil {
		t.Fatalf("SetLicensed: %v", err)
	}
	res, err := resolver.StartTrial(ctx)
	if !errors.Is(err, entitlement.ErrLicensed) {
		t.Fatalf("StartTrial err = %v, want ErrLicensed", err)
	}
	if !res.EffectivePro {
		t.Fatal("rejection should still report the licensed state")
	}

	ent, err := st.Entitlement(ctx)
	if err != nil {
		t.Fatalf("Entitlement: %v", err)
	}
	if ent.TrialStart != nil {
		t.Fatal("no trial may be recorded while licensed")
	}
}

func TestStartTrialDoesNotResetRunningClock(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	now := time.Now().UTC()
	resolver.SetClock(func() time.Time { return now })
	started := now.Add(-5 * time.Minute)
	if err := st.SetTrialStart(ctx, started); err != nil {
		t.Fatalf("SetTrialStart: %v", err)
	}

	res, err := resolver.StartTrial(ctx)
	if !errors.Is(err, entitlement.ErrTrialActive) {
		t.Fatalf("StartTrial err = %v, want ErrTrialActive", err)
	}
	if res.TrialRemaining >= entitlement.TrialDuration {
		t.Fatalf("trial remaining = %v, clock must not reset", res.TrialRemaining)
	}

	ent, err := st.Entitlement(ctx)
	if err != nil {
		t.Fatalf("Entitlement: %v", err)
	}
	if ent.TrialStart == nil || !ent.TrialStart.Equal(started) {
		t.Fatalf("trial start changed: %v, want %v", ent.TrialStart, started)
	}
}

func TestStartTrialRejectedAfterConsumedTrial(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	now := time.Now().UTC()
	resolver.SetClock(func() time.Time { return now })
	if err := st.SetTrialStart(ctx, now.Add(-entitlement.TrialDuration-time.Millisecond)); err != nil {
		t.Fatalf("SetTrialStart: %v", err)
	}
	if _, err := resolver.Resolve(ctx); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	res, err := resolver.StartTrial(ctx)
	if !errors.Is(err, entitlement.ErrTrialConsumed) {
		t.Fatalf("StartTrial err = %v, want ErrTrialConsumed", err)
	}
	if res.EffectivePro {
		t.Fatal("consumed trial must not grant pro")
	}

	ent, err := st.Entitlement(ctx)
	if err != nil {
		t.Fatalf("Entitlement: %v", err)
	}
	if ent.TrialStart != nil || !ent.TrialConsumed {
		t.Fatalf("entitlement after consumed restart attempt = %+v", ent)
	}
}

func TestTrialEndedHookRunsOutsideResolverLock(t *testing.T) {
	resolver, st := newResolver(t)
	ctx := context.Background()

	now := time.Now().UTC()
	resolver.SetClock(func() time.Time { return now })
	if err := st.SetTrialStart(ctx, now.Add(-entitlement.TrialDuration-time.Millisecond)); err != nil {
		t.Fatalf("SetTrialStart: %v", err)
	}

	// A hook that re-enters the resolver deadlocks if invoked under the
	// internal mutex.
	var hookRes entitlement.Resolution
	resolver.OnTrialEnded(func(ctx context.Context) {
		res, err := resolver.Resolve(ctx)
		if err != nil {
			t.Errorf("Resolve from hook: %v", err)
		}
		hookRes = res
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := resolver.Resolve(ctx); err != nil {
			t.Errorf("Resolve: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Resolve did not return; trial-ended hook ran under the lock")
	}
	if hookRes.EffectivePro {
		t.Fatal("hook should observe the consumed trial")
	}
}

func TestStartTrialGrantsFullWindow(t *testing.T) {
	resolver, _ := newResolver(t)

	res, err := resolver.StartTrial(context.Background())
	if err != nil {
		t.Fatalf("StartTrial: %v", err)
	}
	if !res.EffectivePro {
		t.Fatal("trial start should grant pro")
	}
	if res.TrialRemaining != entitlement.TrialDuration {
		t.Fatalf("trial remaining = %v, want %v", res.TrialRemaining, entitlement.TrialDuration)
	}
}

func TestActivateAndDeactivate(t *testing.T) {
	resolver, _ := newResolver(t)
	ctx := context.Background()

	if err := resolver.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	res, err := resolver.Resolve(ctx)
	if err != nil || !res.EffectivePro {
		t.Fatalf("after Activate: res=%+v err=%v", res, err)
	}

	if err := resolver.Deactivate(ctx); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	res, err = resolver.Resolve(ctx)
	if err != nil || res.EffectivePro {
		t.Fatalf("after Deactivate: res=%+v err=%v", res, err)
	}
}
