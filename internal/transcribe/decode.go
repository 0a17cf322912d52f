package transcribe

import (
	"context"
	"strings"

	"radiocorpus/internal/services"
)

// Decoder converts recordings into 16 kHz mono PCM WAV with ffmpeg.
type Decoder struct {
	binary string
	runner CommandRunner
}

// NewDecoder returns a decoder that runs binary ("ffmpeg" when empty).
func NewDecoder(binary string) *Decoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Decoder{binary: binary, runner: execRunner}
}

// WithCommandRunner sets a custom command runner (for testing).
func (d *Decoder) WithCommandRunner(runner CommandRunner) *Decoder {
	if runner != nil {
		d.runner = runner
	}
	return d
}

// Decode writes src to dest as WAV.
func (d *Decoder) Decode(ctx context.Context, src, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := d.runner(ctx, d.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcribe", "ffmpeg decode", src, err)
	}
	return nil
}
