package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoTranscript reports that no variant produced any text.
var ErrNoTranscript = errors.New("no transcript produced")

// Transcriber converts the audio file at path into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// CommandRunner executes an external command. Tests replace it to avoid
// spawning processes.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed the torch.load default to weights_only, which breaks
	// the pyannote checkpoints bundled with WhisperX.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
