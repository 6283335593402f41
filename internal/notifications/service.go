package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"amp/internal/config"
)

const userAgent = "Amp-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyTrialStarted(ctx context.Context, remaining time.Duration) error
	NotifyTrialEnded(ctx context.Context) error
	NotifyLicenseActivated(ctx context.Context) error
	NotifyError(ctx context.Context, err error, errContext string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
// Per-category toggles suppress individual notification kinds without
// disabling the service.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		trial:    cfg.Notifications.Trial,
		license:  cfg.Notifications.License,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	trial    bool
	license  bool
	errors   bool
}

func (n *ntfyService) NotifyTrialStarted(ctx context.Context, remaining time.Duration) error {
	if !n.trial {
		return nil
	}
	data := payload{
		title:   "Amp - Trial Started",
		message: fmt.Sprintf("Pro trial started: %s of enhanced audio remaining", remaining.Round(time.Second)),
		tags:    []string{"amp", "trial", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTrialEnded(ctx context.Context) error {
	if !n.trial {
		return nil
	}
	data := payload{
		title:   "Amp - Trial Ended",
		message: "Pro trial expired: settings reverted to the free tier",
		tags:    []string{"amp", "trial", "ended"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyLicenseActivated(ctx context.Context) error {
	if !n.license {
		return nil
	}
	data := payload{
		title:   "Amp - License Activated",
		message: "Pro license activated: all features unlocked",
		tags:    []string{"amp", "license", "activated"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, errContext string) error {
	if !n.errors || err == nil {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error: ")
	builder.WriteString(err.Error())
	if errContext = strings.TrimSpace(errContext); errContext != "" {
		builder.WriteString("\nContext: ")
		builder.WriteString(errContext)
	}
	data := payload{
		title:    "Amp - Error",
		message:  builder.String(),
		tags:     []string{"amp", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Amp - Test",
		message:  "Notification system test",
		tags:     []string{"amp", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTrialStarted(context.Context, time.Duration) error { return nil }
func (noopService) NotifyTrialEnded(context.Context) error                  { return nil }
func (noopService) NotifyLicenseActivated(context.Context) error            { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }
