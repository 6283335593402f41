package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks daemon liveness and media presence.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Amp.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Apply submits settings for a hostname.
func (c *Client) Apply(req ApplyRequest) (*ApplyResponse, error) {
	var resp ApplyResponse
	if err := c.client.Call("Amp.Apply", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Spectrum samples one spectrum frame.
func (c *Client) Spectrum(req SpectrumRequest) (*SpectrumResponse, error) {
	var resp SpectrumResponse
	if err := c.client.Call("Amp.Spectrum", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResumeAudio asks the daemon to resume its audio graph.
func (c *Client) ResumeAudio() (*ResumeAudioResponse, error) {
	var resp ResumeAudioResponse
	if err := c.client.Call("Amp.ResumeAudio", ResumeAudioRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TrialStart requests the one-shot trial.
func (c *Client) TrialStart() (*EntitlementResponse, error) {
	var resp EntitlementResponse
	if err := c.client.Call("Amp.TrialStart", TrialStartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LicenseSet toggles the persisted license flag.
func (c *Client) LicenseSet(licensed bool) (*EntitlementResponse, error) {
	var resp EntitlementResponse
	if err := c.client.Call("Amp.LicenseSet", LicenseSetRequest{Licensed: licensed}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MixSave snapshots a hostname's settings as the saved mix.
func (c *Client) MixSave(hostname string) (*MixResponse, error) {
	var resp MixResponse
	if err := c.client.Call("Amp.MixSave", MixSaveRequest{Hostname: hostname}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MixLoad applies the saved mix to a hostname.
func (c *Client) MixLoad(hostname string) (*MixResponse, error) {
	var resp MixResponse
	if err := c.client.Call("Amp.MixLoad", MixLoadRequest{Hostname: hostname}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Amp.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingsList retrieves all stored per-site settings.
func (c *Client) SettingsList() (*SettingsListResponse, error) {
	var resp SettingsListResponse
	if err := c.client.Call("Amp.SettingsList", SettingsListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification sends a test push notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Amp.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
