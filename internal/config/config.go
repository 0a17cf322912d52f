package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	WorkDir   string `toml:"work_dir"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
}

// OpenF1 contains configuration for the telemetry and radio data source.
type OpenF1 struct {
	BaseURL              string   `toml:"base_url"`
	TimeoutSeconds       int      `toml:"timeout_seconds"`
	Years                []int    `toml:"years"`
	SessionType          string   `toml:"session_type"`
	SessionKeys          []int    `toml:"session_keys"`
	DriverNumbers        []int    `toml:"driver_numbers"`
	MaxSessions          int      `toml:"max_sessions"`
	MaxDriversPerSession int      `toml:"max_drivers_per_session"`
	Channels             []string `toml:"channels"`
}

// Alignment contains telemetry window settings.
type Alignment struct {
	// WindowSeconds is the lookback before each radio message.
	WindowSeconds int `toml:"window_seconds"`
	// ChannelPriority orders channels in generated prompts.
	ChannelPriority []string `toml:"channel_priority"`
}

// Transcription contains WhisperX settings.
type Transcription struct {
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	HFToken        string `toml:"hf_token"`
	Language       string `toml:"language"`
	CleanupAudio   bool   `toml:"cleanup_audio"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Classifier contains corpus filter settings.
type Classifier struct {
	// Strictness is "substring" or "anchored".
	Strictness string `toml:"strictness"`
	// VocabularyFile optionally points at a YAML vocabulary override.
	VocabularyFile string `toml:"vocabulary_file"`
}

// Pipeline contains build run settings.
type Pipeline struct {
	OutputFile string `toml:"output_file"`
	Workers    int    `toml:"workers"`
}

// Metrics contains metrics export settings.
type Metrics struct {
	// Textfile is a Prometheus textfile collector path; empty disables export.
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for radiocorpus.
//
// Configuration sections by subsystem:
//   - Paths: corpus output, transient audio, ledger state, logs
//   - OpenF1: data source endpoint, session and driver selection
//   - Alignment: telemetry lookback window and prompt channel order
//   - Transcription: WhisperX model and audio cleanup
//   - Classifier: conversational strictness and vocabulary overrides
//   - Pipeline: output file and unit worker count
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	OpenF1        OpenF1        `toml:"openf1"`
	Alignment     Alignment     `toml:"alignment"`
	Transcription Transcription `toml:"transcription"`
	Classifier    Classifier    `toml:"classifier"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/radiocorpus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded first so its variables can feed environment overrides.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("radiocorpus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.WorkDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputPath resolves the corpus file. Relative output files live under
// paths.output_dir.
func (c *Config) OutputPath() string {
	file := c.Pipeline.OutputFile
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Paths.OutputDir, file)
}

// LedgerPath returns the progress ledger database location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// Lookback returns the alignment window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Alignment.WindowSeconds) * time.Second
}

// OpenF1Timeout bounds each data source request.
func (c *Config) OpenF1Timeout() time.Duration {
	return time.Duration(c.OpenF1.TimeoutSeconds) * time.Second
}

// TranscriptionTimeout bounds each transcription attempt.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable name used to decode audio.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// UVXBinary returns the uvx executable name used to launch WhisperX.
func (c *Config) UVXBinary() string {
	return "uvx"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
