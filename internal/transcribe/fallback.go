package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"radiocorpus/internal/logging"
	"radiocorpus/internal/services"
)

// Fallback retries an engine over several spellings of the same recording:
// a decoded WAV, the absolute path, then the path relative to the working
// directory. Identical variants are tried once.
type Fallback struct {
	engine  Transcriber
	decoder *Decoder
	workDir string
	logger  *slog.Logger
}

// NewFallback wraps engine. A nil decoder skips the WAV variant; decoded
// files are written to workDir, or next to the recording when it is empty.
func NewFallback(engine Transcriber, decoder *Decoder, workDir string, logger *slog.Logger) *Fallback {
	return &Fallback{
		engine:  engine,
		decoder: decoder,
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Transcribe returns the first non-empty transcript. Empty text counts as a
// failed attempt; when every attempt fails the error wraps ErrNoTranscript.
func (f *Fallback) Transcribe(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "transcribe", "resolve", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "transcribe", "verify", abs, err)
	}
	if info.Size() == 0 {
		return "", services.Wrap(services.ErrValidation, "transcribe", "verify", "empty audio file "+abs, nil)
	}

	variants := make([]string, 0, 3)
	if f.decoder != nil {
		wav, err := f.decode(ctx, abs)
		if err != nil {
			f.logger.Debug("decode variant unavailable", logging.String("path", abs), logging.Error(err))
		} else {
			defer os.Remove(wav)
			variants = append(variants, wav)
		}
	}
	variants = append(variants, abs)
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, abs); err == nil {
			variants = append(variants, rel)
		}
	}

	var lastErr error
	for _, variant := range dedupe(variants) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := f.engine.Transcribe(ctx, variant)
		if err != nil {
			lastErr = err
			f.logger.Debug("transcription attempt failed", logging.String("variant", variant), logging.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		f.logger.Debug("transcription attempt empty", logging.String("variant", variant))
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %s: last error: %w", ErrNoTranscript, filepath.Base(abs), lastErr)
	}
	return "", fmt.Errorf("%w: %s", ErrNoTranscript, filepath.Base(abs))
}

func (f *Fallback) decode(ctx context.Context, abs string) (string, error) {
	dir := f.workDir
	if dir == "" {
		dir = filepath.Dir(abs)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	dest := filepath.Join(dir, base+".decoded.wav")
	if dest == abs {
		return "", fmt.Errorf("decoded path collides with source")
	}
	if err := f.decoder.Decode(ctx, abs, dest); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return dest, nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
