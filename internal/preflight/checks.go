package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"radiocorpus/internal/config"
	"radiocorpus/internal/deps"
	"radiocorpus/internal/openf1"
	"radiocorpus/internal/transcribe"
)

// CheckOpenF1 verifies that the data source answers a session query.
// It uses a single attempt so an outage is reported quickly.
func CheckOpenF1(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "OpenF1"

	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := openf1.New(base, openf1.WithTimeout(timeout), openf1.WithRetries(0, 0), openf1.WithRateLimit(0))
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
}

// CheckTranscriptionAuth verifies that a Hugging Face token is present when
// the selected voice activity detector needs one.
func CheckTranscriptionAuth(cfg *config.Config) Result {
	const name = "Transcription auth"
	if cfg.Transcription.VADMethod != transcribe.VADMethodPyannote {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("not required (%s VAD)", cfg.Transcription.VADMethod)}
	}
	if strings.TrimSpace(cfg.Transcription.HFToken) == "" {
		return Result{Name: name, Detail: "pyannote VAD needs transcription.hf_token"}
	}
	return Result{Name: name, Passed: true, Detail: "Hugging Face token configured"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries a build run executes.
// Both build and doctor use this to avoid duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for WhisperX transcription",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Normalizes radio audio before transcription",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements, "")
}

// MissingRequired returns the names of required binaries that are not available.
func MissingRequired(statuses []deps.Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// summarizeError produces a human-readable summary for health check failures.
func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (OpenF1 unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (OpenF1 unreachable)"
	}
	return err.Error()
}
