package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amp/internal/config"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Default()
	if cfg.Engine.SpectrumBars != 24 {
		t.Fatalf("default spectrum bars = %d, want 24", cfg.Engine.SpectrumBars)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.Engine.SampleRate != 48000 {
		t.Fatalf("sample rate = %d, want default 48000", cfg.Engine.SampleRate)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[engine]",
		"sample_rate = 44100",
		"[logging]",
		`level = "DEBUG"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if cfg.Engine.SampleRate != 44100 {
		t.Fatalf("sample rate = %d", cfg.Engine.SampleRate)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want normalized debug", cfg.Logging.Level)
	}
	if cfg.Engine.BlockSize != 1024 {
		t.Fatalf("block size = %d, want default 1024", cfg.Engine.BlockSize)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir %q not absolute", cfg.Paths.DataDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"low sample rate", func(c *config.Config) { c.Engine.SampleRate = 100 }},
		{"non power of two block", func(c *config.Config) { c.Engine.BlockSize = 1000 }},
		{"too many bars", func(c *config.Config) { c.Engine.SpectrumBars = 4096 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "yaml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		cfg := config.Default()
		cfg.Logging.Format = "console"
		cfg.Logging.Level = "info"
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[engine]") {
		t.Fatal("sample config missing engine section")
	}
}

func TestSocketAndDatabasePaths(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = "/tmp/amp-data"
	cfg.Paths.LogDir = "/tmp/amp-logs"
	if got := cfg.SocketPath(); got != "/tmp/amp-logs/amp.sock" {
		t.Fatalf("SocketPath = %q", got)
	}
	if got := cfg.DatabasePath(); got != "/tmp/amp-data/state.db" {
		t.Fatalf("DatabasePath = %q", got)
	}
}
