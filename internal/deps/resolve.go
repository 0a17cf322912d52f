package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// ResolveBinary returns the executable to run for command. An explicit path
// is used as is when it is executable; a bare name is resolved from
// sidecarDir first and then from PATH. The second result is false when
// nothing executable was found, in which case the first is the trimmed
// input.
func ResolveBinary(command, sidecarDir string) (string, bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", false
	}
	if strings.ContainsRune(command, filepath.Separator) {
		info, err := os.Stat(command)
		return command, err == nil && isExecutable(info)
	}
	if sidecarDir != "" {
		name := command
		if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
			name += ".exe"
		}
		candidate := filepath.Join(sidecarDir, name)
		if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
			return candidate, true
		}
	}
	if resolved, err := exec.LookPath(command); err == nil {
		return resolved, true
	}
	return command, false
}

// Version runs command with args and returns the first line of its output.
func Version(ctx context.Context, command string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, command, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", command, strings.Join(args, " "), err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
