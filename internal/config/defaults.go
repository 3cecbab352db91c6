package config

const (
	defaultDataDir          = "~/.local/share/clipcaster"
	defaultScheduleFileName = "_jobs.json"
	defaultWorkDir          = "~/.local/share/clipcaster/shorts"
	defaultFillerDir        = "~/.local/share/clipcaster/filler"
	defaultAccountsDir      = "~/.config/clipcaster/accounts"
	defaultLogDir           = "~/.local/share/clipcaster/logs"
	defaultCookiesFile      = "~/.local/share/clipcaster/_cookies.txt"
	defaultCheckInterval    = 30
	defaultMinDelay         = 30
	defaultMaxDelay         = 60
	defaultMaxRetries       = 3
	defaultRetryMinDelay    = 5
	defaultRetryMaxDelay    = 15
	defaultAccount          = "random"
	defaultDailyCap         = 10
	defaultPollInterval     = 10
	defaultPollAttempts     = 30
	defaultRequestTimeout   = 60
	defaultGraphAPIVersion  = "v18.0"
	defaultFFmpeg           = "ffmpeg"
	defaultYTDLP            = "yt-dlp"
	defaultFFprobe          = "ffprobe"
	defaultCRF              = 18
	defaultPreset           = "veryfast"
	defaultTranscriber      = "whisperx"
	defaultDevice           = "cpu"
	defaultComputeType      = "int8"
	defaultNotifyTimeout    = 24
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			WorkDir:     defaultWorkDir,
			FillerDir:   defaultFillerDir,
			AccountsDir: defaultAccountsDir,
			LogDir:      defaultLogDir,
			CookiesFile: defaultCookiesFile,
		},
		Scheduler: Scheduler{
			CheckInterval:  defaultCheckInterval,
			MinDelay:       defaultMinDelay,
			MaxDelay:       defaultMaxDelay,
			MaxRetries:     defaultMaxRetries,
			RetryMinDelay:  defaultRetryMinDelay,
			RetryMaxDelay:  defaultRetryMaxDelay,
			DefaultAccount: defaultAccount,
		},
		Publish: Publish{
			DailyCap:        defaultDailyCap,
			PollInterval:    defaultPollInterval,
			PollAttempts:    defaultPollAttempts,
			Concurrent:      true,
			RequestTimeout:  defaultRequestTimeout,
			GraphAPIVersion: defaultGraphAPIVersion,
		},
		Encoder: Encoder{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
			YTDLP:   defaultYTDLP,
			CRF:     defaultCRF,
			Preset:  defaultPreset,
		},
		Transcription: Transcription{
			Command:     defaultTranscriber,
			Device:      defaultDevice,
			ComputeType: defaultComputeType,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobEvents:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
