package coordinator

import (
	"context"
	"errors"
	"time"

	"amp/internal/engine"
	"amp/internal/entitlement"
	"amp/internal/logging"
	"amp/internal/settings"
	"amp/internal/store"
)

// Result types for the message endpoints. Faults never propagate as
// errors: every failure is folded into an Ok=false value with a reason, so
// a caller on the other side of the socket can always render something.

type PingResult struct {
	Ok       bool `json:"ok"`
	HasMedia bool `json:"hasMedia"`
}

type ApplyResult struct {
	Ok           bool              `json:"ok"`
	Error        string            `json:"error,omitempty"`
	Applied      settings.Settings `json:"applied"`
	EffectivePro bool              `json:"effectivePro"`
}

type SpectrumResult struct {
	Ok    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Frame engine.Frame `json:"frame"`
}

type ResumeResult struct {
	Ok      bool `json:"ok"`
	Resumed bool `json:"resumed"`
}

type EntitlementResult struct {
	Ok             bool          `json:"ok"`
	Error          string        `json:"error,omitempty"`
	EffectivePro   bool          `json:"effectivePro"`
	TrialRemaining time.Duration `json:"trialRemaining"`
}

type MixResult struct {
	Ok      bool              `json:"ok"`
	Error   string            `json:"error,omitempty"`
	Mix     settings.Settings `json:"mix"`
	Applied bool              `json:"applied"`
}

type Status struct {
	EffectivePro   bool          `json:"effectivePro"`
	Licensed       bool          `json:"licensed"`
	TrialRemaining time.Duration `json:"trialRemaining"`
	MediaCount     int           `json:"mediaCount"`
	Pipelines      int           `json:"pipelines"`
	Store          store.Health  `json:"store"`
}

// Ping reports liveness and whether any media element is known.
func (c *Coordinator) Ping() PingResult {
	return PingResult{Ok: true, HasMedia: c.media.HasMedia()}
}

// ApplySettings validates raw settings against the current entitlement,
// persists the clamped record for the hostname, and applies it to every
// matching element immediately. Other contexts converge via the store
// watcher.
func (c *Coordinator) ApplySettings(ctx context.Context, hostname string, raw settings.Raw) ApplyResult {
	hostname = settings.NormalizeHostname(hostname)
	if hostname == "" {
		return ApplyResult{Error: "hostname required"}
	}

	c.refreshResolution(ctx)
	res := c.resolution()
	clamped := settings.Clamp(raw, res.EffectivePro)

	if err := c.store.PutSettings(ctx, hostname, clamped); err != nil {
		c.logger.Warn("settings persist failed",
			logging.Error(err),
			logging.String(logging.FieldHostname, hostname))
		return ApplyResult{Error: err.Error(), Applied: clamped, EffectivePro: res.EffectivePro}
	}

	for _, el := range c.media.ByHostname(hostname) {
		c.applyTo(ctx, el)
	}
	return ApplyResult{Ok: true, Applied: clamped, EffectivePro: res.EffectivePro}
}

// SpectrumFrame samples the spectrum of the first playing element for the
// hostname, or any playing element when hostname is empty. Spectrum data
// is gated on entitlement: free-tier callers get Ok=false. No playing
// element is not a fault: the frame is simply inactive.
func (c *Coordinator) SpectrumFrame(ctx context.Context, hostname string) SpectrumResult {
	c.refreshResolution(ctx)
	if !c.resolution().EffectivePro {
		return SpectrumResult{Error: "spectrum requires an active license or trial"}
	}

	var candidates []engine.MediaElement
	if hostname = settings.NormalizeHostname(hostname); hostname != "" {
		candidates = c.media.ByHostname(hostname)
	} else {
		candidates = c.media.Snapshot()
	}
	for _, el := range candidates {
		if el.Playing() {
			return SpectrumResult{Ok: true, Frame: c.engine.SampleSpectrum(el)}
		}
	}
	return SpectrumResult{Ok: true, Frame: engine.Frame{Active: false, Levels: []float64{}}}
}

// ResumeAudio acknowledges a user-gesture resume request.
func (c *Coordinator) ResumeAudio() ResumeResult {
	return ResumeResult{Ok: true, Resumed: c.engine.Resume()}
}

// StartTrial begins the one-shot trial. Rejections (already licensed,
// trial already running, trial already used) come back as Ok=false with
// the current entitlement so the caller can render the actual state.
func (c *Coordinator) StartTrial(ctx context.Context) EntitlementResult {
	res, err := c.resolver.StartTrial(ctx)
	if err != nil {
		result := EntitlementResult{
			Error:          err.Error(),
			EffectivePro:   res.EffectivePro,
			TrialRemaining: res.TrialRemaining,
		}
		benign := errors.Is(err, entitlement.ErrLicensed) ||
			errors.Is(err, entitlement.ErrTrialActive) ||
			errors.Is(err, entitlement.ErrTrialConsumed)
		if !benign {
			c.logger.Warn("trial start failed", logging.Error(err))
		}
		return result
	}

	if err := c.notifier.NotifyTrialStarted(ctx, res.TrialRemaining); err != nil {
		c.logger.Warn("trial-started notification failed", logging.Error(err))
	}
	c.refreshResolution(ctx)
	c.applyAll(ctx)
	return EntitlementResult{Ok: true, EffectivePro: res.EffectivePro, TrialRemaining: res.TrialRemaining}
}

// SetLicense toggles the persisted license flag and re-derives everything.
func (c *Coordinator) SetLicense(ctx context.Context, licensed bool) EntitlementResult {
	var err error
	if licensed {
		err = c.resolver.Activate(ctx)
	} else {
		err = c.resolver.Deactivate(ctx)
	}
	if err != nil {
		c.logger.Warn("license update failed", logging.Error(err))
		return EntitlementResult{Error: err.Error()}
	}

	if licensed {
		if err := c.notifier.NotifyLicenseActivated(ctx); err != nil {
			c.logger.Warn("license notification failed", logging.Error(err))
		}
	}
	c.refreshResolution(ctx)
	c.applyAll(ctx)
	res := c.resolution()
	return EntitlementResult{Ok: true, EffectivePro: res.EffectivePro, TrialRemaining: res.TrialRemaining}
}

// SaveMix snapshots the hostname's effective settings as the saved mix.
func (c *Coordinator) SaveMix(ctx context.Context, hostname string) MixResult {
	hostname = settings.NormalizeHostname(hostname)
	if hostname == "" {
		return MixResult{Error: "hostname required"}
	}

	mix := c.settingsFor(ctx, hostname)
	if err := c.store.PutSavedMix(ctx, mix); err != nil {
		return MixResult{Error: err.Error(), Mix: mix}
	}
	return MixResult{Ok: true, Mix: mix}
}

// LoadMix applies the saved mix to the hostname, re-clamped against the
// current entitlement in case the tier changed since the mix was saved.
func (c *Coordinator) LoadMix(ctx context.Context, hostname string) MixResult {
	hostname = settings.NormalizeHostname(hostname)
	if hostname == "" {
		return MixResult{Error: "hostname required"}
	}

	mix, found, err := c.store.SavedMix(ctx)
	if err != nil {
		return MixResult{Error: err.Error()}
	}
	if !found {
		return MixResult{Error: "no saved mix"}
	}

	result := c.ApplySettings(ctx, hostname, settings.Raw{
		VolumeBoost:    mix.VolumeBoost,
		Speed:          mix.Speed,
		NightMode:      mix.NightMode,
		PitchSemitones: mix.PitchSemitones,
	})
	if !result.Ok {
		return MixResult{Error: result.Error, Mix: result.Applied}
	}
	return MixResult{Ok: true, Mix: result.Applied, Applied: true}
}

// CurrentStatus summarizes entitlement, media, and store health.
func (c *Coordinator) CurrentStatus(ctx context.Context) Status {
	c.refreshResolution(ctx)
	res := c.resolution()

	status := Status{
		EffectivePro:   res.EffectivePro,
		TrialRemaining: res.TrialRemaining,
		MediaCount:     len(c.media.Snapshot()),
		Pipelines:      c.engine.PipelineCount(),
	}
	if ent, err := c.store.Entitlement(ctx); err == nil {
		status.Licensed = ent.Licensed
	}
	health, _ := c.store.CheckHealth(ctx)
	status.Store = health
	return status
}

// ListSites returns every stored per-site settings record.
func (c *Coordinator) ListSites(ctx context.Context) ([]store.SiteSettings, error) {
	return c.store.ListSettings(ctx)
}

// SendTestNotification pushes a test message through the notifier.
func (c *Coordinator) SendTestNotification(ctx context.Context) error {
	return c.notifier.TestNotification(ctx)
}
