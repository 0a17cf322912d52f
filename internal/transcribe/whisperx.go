package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"radiocorpus/internal/services"
)

// WhisperX command-line constants.
const (
	DefaultModel      = "base"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
)

// WhisperXConfig captures runtime settings for WhisperX.
type WhisperXConfig struct {
	// Model is the Whisper model name, e.g. "base" or "large-v3".
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" or "pyannote"; pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Language is an ISO 639-1 code; empty lets WhisperX detect it.
	Language  string
	UVXBinary string
	// Timeout bounds one WhisperX invocation; zero means no limit.
	Timeout time.Duration
	// OutputDir receives WhisperX JSON output; defaults to the audio directory.
	OutputDir string
}

// WhisperX transcribes files with the whisperx CLI run through uvx.
type WhisperX struct {
	cfg    WhisperXConfig
	runner CommandRunner
}

// NewWhisperX builds a WhisperX transcriber.
func NewWhisperX(cfg WhisperXConfig) *WhisperX {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.VADMethod) == "" {
		cfg.VADMethod = VADMethodSilero
	}
	if strings.TrimSpace(cfg.UVXBinary) == "" {
		cfg.UVXBinary = "uvx"
	}
	return &WhisperX{cfg: cfg, runner: execRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner CommandRunner) *WhisperX {
	if runner != nil {
		w.runner = runner
	}
	return w
}

// Model returns the configured model name.
func (w *WhisperX) Model() string { return w.cfg.Model }

// Transcribe runs WhisperX on path and joins the text of its segments.
func (w *WhisperX) Transcribe(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	outputDir := w.cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	runCtx := ctx
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}
	if err := w.runner(runCtx, w.cfg.UVXBinary, w.buildArgs(path, outputDir)...); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", services.Wrap(services.ErrTimeout, "transcribe", "whisperx", fmt.Sprintf("exceeded %s", w.cfg.Timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	jsonPath := filepath.Join(outputDir, base+".json")
	defer os.Remove(jsonPath)
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "read output", err)
	}
	return joinSegments(segments), nil
}

func (w *WhisperX) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)
	if w.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"whisperx",
		source,
		"--model", w.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--vad_method", w.cfg.VADMethod,
	)
	if w.cfg.VADMethod == VADMethodPyannote && w.cfg.HFToken != "" {
		args = append(args, "--hf_token", w.cfg.HFToken)
	}
	if lang := strings.ToLower(strings.TrimSpace(w.cfg.Language)); lang != "" {
		args = append(args, "--language", lang)
	}
	if w.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

// Segment is one transcribed span from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
