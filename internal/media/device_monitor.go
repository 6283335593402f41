package media

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"amp/internal/logging"
)

// DeviceMonitor listens for udev netlink events and kicks the media
// watcher when sound hardware appears, so a freshly plugged device is
// picked up without waiting for the next poll.
type DeviceMonitor struct {
	logger *slog.Logger
	kick   func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func NewDeviceMonitor(logger *slog.Logger, kick func()) *DeviceMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DeviceMonitor{
		logger: logging.NewComponentLogger(logger, "device-monitor"),
		kick:   kick,
	}
}

// Start begins listening for udev netlink events. A connect failure is
// non-fatal: discovery falls back to polling alone.
func (m *DeviceMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; device discovery will rely on polling",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
			logging.String(logging.FieldImpact, "hotplug detection unavailable"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("device monitor started",
		logging.String(logging.FieldEventType, "device_monitor_started"))
	return nil
}

// Stop shuts down the monitor.
func (m *DeviceMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("device monitor stopped",
		logging.String(logging.FieldEventType, "device_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *DeviceMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *DeviceMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "hotplug detection may be affected"),
			)
		}
	}
}

// buildMatcher matches sound-card add/change events.
func (m *DeviceMonitor) buildMatcher() netlink.Matcher {
	action := "add|change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "sound",
		},
	})
	return rules
}

func (m *DeviceMonitor) handleEvent(uevent netlink.UEvent) {
	m.logger.Info("sound device event",
		logging.String(logging.FieldEventType, "sound_device_detected"),
		logging.String("action", string(uevent.Action)),
		logging.String("kobj", uevent.KObj),
	)
	if m.kick != nil {
		m.kick()
	}
}
