package ipc

import (
	"amp/internal/settings"
)

// Request and response DTOs for the JSON-RPC control surface. Response
// payloads mirror the coordinator's result types: faults are folded into
// Ok=false with a reason, so a CLI never has to branch on transport errors
// versus domain errors.

type PingRequest struct{}

type PingResponse struct {
	Ok       bool `json:"ok"`
	HasMedia bool `json:"hasMedia"`
}

type ApplyRequest struct {
	Hostname string       `json:"hostname"`
	Settings settings.Raw `json:"settings"`
}

type ApplyResponse struct {
	Ok           bool              `json:"ok"`
	Error        string            `json:"error,omitempty"`
	Applied      settings.Settings `json:"applied"`
	EffectivePro bool              `json:"effectivePro"`
}

type SpectrumRequest struct {
	Hostname string `json:"hostname"`
}

type SpectrumResponse struct {
	Ok     bool      `json:"ok"`
	Error  string    `json:"error,omitempty"`
	Active bool      `json:"active"`
	Levels []float64 `json:"levels"`
}

type ResumeAudioRequest struct{}

type ResumeAudioResponse struct {
	Ok      bool `json:"ok"`
	Resumed bool `json:"resumed"`
}

type TrialStartRequest struct{}

type LicenseSetRequest struct {
	Licensed bool `json:"licensed"`
}

// EntitlementResponse answers both trial and license operations.
type EntitlementResponse struct {
	Ok                   bool   `json:"ok"`
	Error                string `json:"error,omitempty"`
	EffectivePro         bool   `json:"effectivePro"`
	TrialRemainingMillis int64  `json:"trialRemainingMillis"`
}

type MixSaveRequest struct {
	Hostname string `json:"hostname"`
}

type MixLoadRequest struct {
	Hostname string `json:"hostname"`
}

type MixResponse struct {
	Ok      bool              `json:"ok"`
	Error   string            `json:"error,omitempty"`
	Mix     settings.Settings `json:"mix"`
	Applied bool              `json:"applied"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Running              bool   `json:"running"`
	PID                  int    `json:"pid"`
	EffectivePro         bool   `json:"effectivePro"`
	Licensed             bool   `json:"licensed"`
	TrialRemainingMillis int64  `json:"trialRemainingMillis"`
	MediaCount           int    `json:"mediaCount"`
	Pipelines            int    `json:"pipelines"`
	StateDBPath          string `json:"stateDbPath"`
	LockPath             string `json:"lockPath"`
	StoreHealthy         bool   `json:"storeHealthy"`
	StoreError           string `json:"storeError,omitempty"`
	SiteCount            int    `json:"siteCount"`
}

type SettingsListRequest struct{}

type SiteRecord struct {
	Hostname  string            `json:"hostname"`
	Settings  settings.Settings `json:"settings"`
	UpdatedAt string            `json:"updatedAt"`
}

type SettingsListResponse struct {
	Ok    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Sites []SiteRecord `json:"sites"`
}

type TestNotificationRequest struct{}

type TestNotificationResponse struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
}
