package store_test

import (
	"context"
	"testing"
	"time"

	"amp/internal/logging"
	"amp/internal/settings"
	"amp/internal/store"
	"amp/internal/testsupport"
)

func waitForChange(t *testing.T, events <-chan store.Change, want store.Scope) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case change, ok := <-events:
			if !ok {
				t.Fatal("event channel closed early")
			}
			if change.Scope == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s change", want)
		}
	}
}

func TestWatcherEmitsScopedChanges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	watcher := store.NewWatcher(st, 10*time.Millisecond, logging.NewNop())
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("watcher.Start: %v", err)
	}
	t.Cleanup(watcher.Stop)

	if err := st.PutSettings(ctx, "video.example", settings.Defaults()); err != nil {
		t.Fatalf("PutSettings: %v", err)
	}
	waitForChange(t, watcher.Events(), store.ScopeSettings)

	if err := st.SetLicensed(ctx, true); err != nil {
		t.Fatalf("SetLicensed: %v", err)
	}
	waitForChange(t, watcher.Events(), store.ScopeEntitlement)
}

func TestWatcherStopClosesChannel(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	watcher := store.NewWatcher(st, 10*time.Millisecond, logging.NewNop())
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("watcher.Start: %v", err)
	}
	watcher.Stop()

	select {
	case _, ok := <-watcher.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestWatcherIgnoresQuietStore(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	watcher := store.NewWatcher(st, 10*time.Millisecond, logging.NewNop())
	if err := watcher.Start(context.Background()); err != nil {
		t.Fatalf("watcher.Start: %v", err)
	}
	t.Cleanup(watcher.Stop)

	select {
	case change := <-watcher.Events():
		t.Fatalf("unexpected change %+v from quiet store", change)
	case <-time.After(100 * time.Millisecond):
	}
}
