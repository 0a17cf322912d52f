package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"radiocorpus/internal/pairs"
	"radiocorpus/internal/testsupport"
)

func TestBuildAppendsPairsAndResumes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	env := setupCLITestEnv(t)
	corpusPath := env.cfg.OutputPath()

	out, _, err := runCLI(t, []string{"build", "--skip-preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	requireContains(t, out, "Training pairs")
	requireContains(t, out, "Events without telemetry")

	lines := testsupport.ReadLines(t, corpusPath)
	if len(lines) != 1 {
		t.Fatalf("expected 1 pair, got %d: %v", len(lines), lines)
	}
	var pair pairs.TrainingPair
	if err := json.Unmarshal([]byte(lines[0]), &pair); err != nil {
		t.Fatalf("decode pair: %v", err)
	}
	if pair.Completion != "Box this lap for softs." {
		t.Fatalf("unexpected completion %q", pair.Completion)
	}
	if !strings.HasPrefix(pair.Prompt, "Telemetry: speed 300.0, rpm 11500.0") {
		t.Fatalf("unexpected prompt %q", pair.Prompt)
	}
	if hits := env.audioHits.Load(); hits != 1 {
		t.Fatalf("expected only the aligned event downloaded, got %d downloads", hits)
	}
	absCorpus, err := filepath.Abs(corpusPath)
	if err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenLedger(t, env.cfg)
	units, err := store.Units(context.Background(), absCorpus)
	if err != nil {
		t.Fatalf("ledger units: %v", err)
	}
	if len(units) != 1 || units[0].SessionKey != 9158 || units[0].DriverNumber != 1 || units[0].Pairs != 1 {
		t.Fatalf("unexpected ledger units %+v", units)
	}

	out, _, err = runCLI(t, []string{"build", "--skip-preflight", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	var summary buildSummaryOutput
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary.Totals["units_skipped"] != 1 || summary.Totals["pairs"] != 0 {
		t.Fatalf("expected resumed run to skip the unit, got %+v", summary.Totals)
	}
	if lines := testsupport.ReadLines(t, corpusPath); len(lines) != 1 {
		t.Fatalf("resume duplicated pairs: %d lines", len(lines))
	}

	out, _, err = runCLI(t, []string{"ledger", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"ledger", "list", "--units"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list --units: %v", err)
	}
	requireContains(t, out, "9158")

	if _, _, err := runCLI(t, []string{"build", "--skip-preflight", "--fresh"}, env.configPath); err != nil {
		t.Fatalf("fresh build: %v", err)
	}
	if lines := testsupport.ReadLines(t, corpusPath); len(lines) != 1 {
		t.Fatalf("fresh build should rewrite the corpus, got %d lines", len(lines))
	}

	metricsText, err := os.ReadFile(env.cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(metricsText), `radiocorpus_build_total{counter="pairs"} 1`)

	out, _, err = runCLI(t, []string{"ledger", "reset"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger reset: %v", err)
	}
	requireContains(t, out, "Removed 1 completed unit(s)")
}

func TestBuildPreflightRejectsMissingUVX(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	_, _, err := runCLI(t, []string{"build"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "uvx") {
		t.Fatalf("expected missing uvx error, got %v", err)
	}
}

func TestFilterCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "f1_dataset_2023.jsonl")
	testsupport.WriteLines(t, input,
		`{"prompt": "Telemetry: speed 300.0. Advice:", "completion": "Box this lap, box box, softs are ready."}`,
		`{"prompt": "Telemetry: speed 280.0. Advice:", "completion": "Good job mate, well done."}`,
		`{"prompt": "Telemetry: speed 150.0. Advice:", "completion": "ok"}`,
		`not json`,
	)

	out, _, err := runCLI(t, []string{"filter", input}, env.configPath)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	requireContains(t, out, "Removed as conversational")

	kept := testsupport.ReadLines(t, filepath.Join(env.baseDir, "f1_dataset_2023_filtered.jsonl"))
	removed := testsupport.ReadLines(t, filepath.Join(env.baseDir, "f1_dataset_2023_removed.jsonl"))
	if len(kept) != 1 || len(removed) != 2 {
		t.Fatalf("expected 1 kept and 2 removed, got %d and %d", len(kept), len(removed))
	}
	requireContains(t, removed[0], `"removal_reason":"conversational"`)
	requireContains(t, removed[1], `"removal_reason":"gibberish"`)

	out, _, err = runCLI(t, []string{"filter", input, "--json", "--kept", filepath.Join(env.baseDir, "k.jsonl"), "--removed", filepath.Join(env.baseDir, "r.jsonl")}, env.configPath)
	if err != nil {
		t.Fatalf("filter --json: %v", err)
	}
	var counts filterJSON
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode filter json: %v", err)
	}
	if counts.Total != 4 || counts.Malformed != 1 || counts.KeptCount != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestFilterOutputPaths(t *testing.T) {
	kept, removed := filterOutputPaths("/data/f1_dataset_2024.jsonl")
	if kept != "/data/f1_dataset_2024_filtered.jsonl" || removed != "/data/f1_dataset_2024_removed.jsonl" {
		t.Fatalf("unexpected paths %q %q", kept, removed)
	}
	kept, _ = filterOutputPaths("corpus")
	if kept != "corpus_filtered.jsonl" {
		t.Fatalf("unexpected extensionless path %q", kept)
	}
}

func TestMergeCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	a := filepath.Join(env.baseDir, "a.jsonl")
	b := filepath.Join(env.baseDir, "b.jsonl")
	testsupport.WriteLines(t, a, `{"prompt":"p1","completion":"c1"}`, `{"prompt":"p2","completion":"c2"}`)
	testsupport.WriteLines(t, b, `{"prompt":"p3","completion":"c3"}`)
	combined := filepath.Join(env.baseDir, "combined.jsonl")

	out, _, err := runCLI(t, []string{"merge", a, b, "--output", combined}, env.configPath)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	requireContains(t, out, "Total")
	lines := testsupport.ReadLines(t, combined)
	if len(lines) != 3 || !strings.Contains(lines[2], "c3") {
		t.Fatalf("unexpected merged lines %v", lines)
	}

	if _, _, err := runCLI(t, []string{"merge", a}, env.configPath); err == nil {
		t.Fatal("expected error without --output")
	}
}

func TestClassifyCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"classify", "Box box, pit this lap for hards.", "Thank you guys, great job."}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "keep")
	requireContains(t, out, "conversational")

	if _, _, err := runCLI(t, []string{"classify", "--strictness", "loose", "hello"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown strictness")
	}
}

func TestDoctorCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Binaries ==")
	requireContains(t, out, "uvx 0.4.0")
	requireContains(t, out, "OpenF1")
	requireContains(t, out, "no builds recorded yet")
}

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.server.URL)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
}

func TestRunReportsErrorsWithExitCode(t *testing.T) {
	var stderr strings.Builder
	if code := run([]string{"no-such-command"}, &stderr); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	requireContains(t, stderr.String(), "radiocorpus: unknown command")
}
