package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"radiocorpus/internal/config"
	"radiocorpus/internal/testsupport"
)

// uvxStub writes a WhisperX JSON transcript next to the requested output
// directory, named after the source file.
const uvxStub = `#!/bin/sh
src=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    whisperx) shift; src="$1" ;;
    --output_dir) shift; out="$1" ;;
  esac
  shift
done
if [ -z "$out" ]; then
  echo "uvx 0.4.0"
  exit 0
fi
base=$(basename "$src")
base="${base%.*}"
printf '{"segments":[{"text":" Box this lap for softs. ","start":0,"end":1.5}]}' > "$out/$base.json"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *httptest.Server
	audioHits  *atomic.Int64
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	audioHits := &atomic.Int64{}
	server := newOpenF1Server(t, audioHits)
	cfg := testsupport.NewConfig(t,
		testsupport.WithOpenF1URL(server.URL),
		testsupport.WithMetricsTextfile(),
	)
	base := testsupport.BaseDir(cfg)

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	writeExecutable(t, filepath.Join(binDir, "uvx"), uvxStub)
	writeExecutable(t, filepath.Join(binDir, "ffmpeg"), "#!/bin/sh\nexit 1\n")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		server:     server,
		audioHits:  audioHits,
	}
}

func newOpenF1Server(t *testing.T, audioHits *atomic.Int64) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") == "" {
			fmt.Fprint(w, `[{"session_key": 9158}]`)
			return
		}
		fmt.Fprint(w, `[{"session_key": 9158, "session_name": "Race", "session_type": "Race", "year": 2023, "location": "Monza"}]`)
	})
	mux.HandleFunc("/team_radio", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"date": "2023-09-03T13:10:20Z", "recording_url": "%[1]s/audio/box.mp3", "session_key": 9158, "driver_number": 1},
			{"date": "2023-09-03T11:00:00Z", "recording_url": "%[1]s/audio/early.mp3", "session_key": 9158, "driver_number": 1}
		]`, server.URL)
	})
	mux.HandleFunc("/car_data", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"date": "2023-09-03T13:10:00Z", "speed": 290, "rpm": 11000, "driver_number": 1, "session_key": 9158},
			{"date": "2023-09-03T13:10:05Z", "speed": 300, "rpm": 11500, "driver_number": 1, "session_key": 9158},
			{"date": "2023-09-03T13:10:10Z", "speed": 310, "rpm": 12000, "driver_number": 1, "session_key": 9158}
		]`)
	})
	mux.HandleFunc("/audio/", func(w http.ResponseWriter, r *http.Request) {
		audioHits.Add(1)
		_, _ = w.Write([]byte("ID3 fake radio payload"))
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeExecutable(t *testing.T, path, script string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
