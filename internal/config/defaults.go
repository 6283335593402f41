package config

const (
	defaultDataDir         = "~/.local/share/amp"
	defaultLogDir          = "~/.local/share/amp/logs"
	defaultMediaDir        = "~/.local/share/amp/media"
	defaultSampleRate      = 48000
	defaultBlockSize       = 1024
	defaultSpectrumBars    = 24
	defaultRampMillis      = 20
	defaultPollSeconds     = 2
	defaultStorePollMillis = 1000
	defaultNotifyTimeout   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			MediaDir: defaultMediaDir,
		},
		Engine: Engine{
			SampleRate:   defaultSampleRate,
			BlockSize:    defaultBlockSize,
			SpectrumBars: defaultSpectrumBars,
			RampMillis:   defaultRampMillis,
		},
		Watcher: Watcher{
			PollSeconds:  defaultPollSeconds,
			DeviceEvents: true,
		},
		Sync: Sync{
			StorePollMillis: defaultStorePollMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Trial:          true,
			License:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
