package config

const (
	defaultOutputDir            = "~/.local/share/radiocorpus/corpus"
	defaultWorkDir              = "~/.cache/radiocorpus/audio"
	defaultStateDir             = "~/.local/share/radiocorpus/state"
	defaultLogDir               = "~/.local/share/radiocorpus/logs"
	defaultOpenF1BaseURL        = "https://api.openf1.org/v1"
	defaultOpenF1TimeoutSeconds = 30
	defaultSessionType          = "Race"
	defaultWindowSeconds        = 30
	defaultWhisperXModel        = "base"
	defaultVADMethod            = "silero"
	defaultLanguage             = "en"
	defaultTranscriptionTimeout = 600
	defaultClassifierStrictness = "substring"
	defaultOutputFile           = "f1_dataset.jsonl"
	defaultWorkers              = 1
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	maxWorkers                  = 16
	openF1BaseURLEnv            = "OPENF1_BASE_URL"
	hfTokenEnv                  = "RADIOCORPUS_HF_TOKEN"
)

var (
	defaultYears           = []int{2023}
	defaultChannels        = []string{"speed", "rpm", "throttle", "brake"}
	defaultChannelPriority = []string{"speed", "rpm", "throttle", "brake", "n_gear", "drs"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			WorkDir:   defaultWorkDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		OpenF1: OpenF1{
			BaseURL:        defaultOpenF1BaseURL,
			TimeoutSeconds: defaultOpenF1TimeoutSeconds,
			Years:          append([]int(nil), defaultYears...),
			SessionType:    defaultSessionType,
			Channels:       append([]string(nil), defaultChannels...),
		},
		Alignment: Alignment{
			WindowSeconds:   defaultWindowSeconds,
			ChannelPriority: append([]string(nil), defaultChannelPriority...),
		},
		Transcription: Transcription{
			Model:          defaultWhisperXModel,
			VADMethod:      defaultVADMethod,
			Language:       defaultLanguage,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Classifier: Classifier{
			Strictness: defaultClassifierStrictness,
		},
		Pipeline: Pipeline{
			OutputFile: defaultOutputFile,
			Workers:    defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
