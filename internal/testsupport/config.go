// Package testsupport provides shared helpers for package tests: temp-dir
// configs, state stores, and scripted media elements.
package testsupport

import (
	"path/filepath"
	"testing"

	"amp/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Watcher.DeviceEvents = false
	cfg.Sync.StorePollMillis = 20

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMediaDir overrides the watched media directory on the test config.
func WithMediaDir(dir string) ConfigOption {
	return func(c *config.Config) {
		c.Paths.MediaDir = dir
	}
}
