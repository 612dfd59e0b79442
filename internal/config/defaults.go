package config

const (
	defaultDataDir             = "~/.local/share/mixvault"
	defaultLogDir              = "~/.local/share/mixvault/logs"
	defaultDatabaseFile        = "catalog.db"
	defaultMode                = ModeBackfill
	defaultAutoVerifyThreshold = 0.8
	defaultClaimTimeoutSeconds = 30
	defaultTrackHigh           = 0.90
	defaultTrackMedium         = 0.75
	defaultArtistHigh          = 0.85
	defaultArtistMedium        = 0.70
	defaultCandidateLimit      = 25
	defaultBatchSize           = 50
	defaultRetryMaxAgeHours    = 72
	defaultPollIntervalSeconds = 300
	defaultLogFormat           = "auto"
	defaultLogLevel            = "info"
	defaultSinkBuffer          = 256
	envDatabasePath            = "MIXVAULT_DATABASE_PATH"
	envSystemIdentity          = "MIXVAULT_SYSTEM_IDENTITY"
	envMode                    = "MIXVAULT_MODE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Canonicalize: Canonicalize{
			Mode:                defaultMode,
			AutoVerifyThreshold: defaultAutoVerifyThreshold,
			ClaimTimeoutSeconds: defaultClaimTimeoutSeconds,
			DetectContexts:      true,
		},
		Matcher: Matcher{
			TrackHigh:      defaultTrackHigh,
			TrackMedium:    defaultTrackMedium,
			ArtistHigh:     defaultArtistHigh,
			ArtistMedium:   defaultArtistMedium,
			CandidateLimit: defaultCandidateLimit,
		},
		Runner: Runner{
			BatchSize:           defaultBatchSize,
			RetryMaxAgeHours:    defaultRetryMaxAgeHours,
			PollIntervalSeconds: defaultPollIntervalSeconds,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			SinkBuffer: defaultSinkBuffer,
		},
	}
}
