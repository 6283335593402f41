package config

import "fmt"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.SampleRate < 8000 || c.Engine.SampleRate > 192000 {
		return fmt.Errorf("engine.sample_rate %d outside supported range [8000, 192000]", c.Engine.SampleRate)
	}
	if c.Engine.BlockSize&(c.Engine.BlockSize-1) != 0 {
		return fmt.Errorf("engine.block_size %d must be a power of two", c.Engine.BlockSize)
	}
	if c.Engine.SpectrumBars > c.Engine.BlockSize/2 {
		return fmt.Errorf("engine.spectrum_bars %d exceeds available frequency bins", c.Engine.SpectrumBars)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
