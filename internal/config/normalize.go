package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeWatcher()
	c.normalizeSync()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaDir) != "" {
		if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
			return fmt.Errorf("paths.media_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	if c.Engine.SampleRate <= 0 {
		c.Engine.SampleRate = defaultSampleRate
	}
	if c.Engine.BlockSize <= 0 {
		c.Engine.BlockSize = defaultBlockSize
	}
	if c.Engine.SpectrumBars <= 0 {
		c.Engine.SpectrumBars = defaultSpectrumBars
	}
	if c.Engine.RampMillis <= 0 {
		c.Engine.RampMillis = defaultRampMillis
	}
}

func (c *Config) normalizeWatcher() {
	if c.Watcher.PollSeconds <= 0 {
		c.Watcher.PollSeconds = defaultPollSeconds
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.StorePollMillis <= 0 {
		c.Sync.StorePollMillis = defaultStorePollMillis
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
