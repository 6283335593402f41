package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"amp/internal/config"
	"amp/internal/notifications"
)

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []captured) {
	t.Helper()

	var mu sync.Mutex
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func enabledConfig(topic string) config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Trial = true
	cfg.Notifications.License = true
	cfg.Notifications.Errors = true
	return cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTrialStarted(context.Background(), 15*time.Minute); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := enabledConfig(server.URL)
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyTrialStarted(ctx, 15*time.Minute); err != nil {
		t.Fatalf("NotifyTrialStarted: %v", err)
	}
	if err := svc.NotifyTrialEnded(ctx); err != nil {
		t.Fatalf("NotifyTrialEnded: %v", err)
	}
	if err := svc.NotifyLicenseActivated(ctx); err != nil {
		t.Fatalf("NotifyLicenseActivated: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("store unavailable"), "sync"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	got := requests()
	if len(got) != 4 {
		t.Fatalf("captured %d requests, want 4", len(got))
	}
	if got[0].title != "Amp - Trial Started" || got[0].tags != "amp,trial,started" {
		t.Fatalf("trial started payload: %+v", got[0])
	}
	if got[1].title != "Amp - Trial Ended" {
		t.Fatalf("trial ended payload: %+v", got[1])
	}
	if got[2].title != "Amp - License Activated" || got[2].tags != "amp,license,activated" {
		t.Fatalf("license payload: %+v", got[2])
	}
	if got[3].priority != "high" {
		t.Fatalf("error payload should be high priority: %+v", got[3])
	}
	if got[3].message != "Error: store unavailable\nContext: sync" {
		t.Fatalf("error message = %q", got[3].message)
	}
}

func TestNtfyServiceHonorsCategoryToggles(t *testing.T) {
	server, requests := newCaptureServer(t)
	cfg := enabledConfig(server.URL)
	cfg.Notifications.Trial = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyTrialStarted(ctx, time.Minute); err != nil {
		t.Fatalf("NotifyTrialStarted: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("captured %d requests, want 1 (test notification only)", len(got))
	}
	if got[0].title != "Amp - Test" {
		t.Fatalf("unexpected payload: %+v", got[0])
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := enabledConfig(server.URL)
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 429 response")
	}
}
