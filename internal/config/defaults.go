package config

const (
	defaultBuildDir              = "~/.local/share/maestro/build"
	defaultLogDir                = "~/.local/share/maestro/logs"
	defaultTranscodeCacheDir     = "~/.cache/maestro/transcode"
	defaultGameTarget            = "vanilla"
	defaultEncoderBinary         = "vgaudio"
	defaultEncoderTimeoutSeconds = 300
	defaultTranscodeCacheMaxGiB  = 4
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BuildDir:          defaultBuildDir,
			LogDir:            defaultLogDir,
			TranscodeCacheDir: defaultTranscodeCacheDir,
		},
		Game: Game{
			Target: defaultGameTarget,
			BaseIDs: map[string]int64{
				"vanilla_base_id": 4000,
				"deluxe_base_id":  7000,
			},
		},
		Encoder: Encoder{
			Binary:         defaultEncoderBinary,
			TimeoutSeconds: defaultEncoderTimeoutSeconds,
			Parallelism:    0, // 0 selects runtime.NumCPU at engine construction
		},
		TranscodeCache: TranscodeCache{
			Enabled: true,
			MaxGiB:  defaultTranscodeCacheMaxGiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
