package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"radiocorpus/internal/corpus"
	"radiocorpus/internal/pairs"
	"radiocorpus/internal/telemetry"
	"radiocorpus/internal/testsupport"
)

func openTestWriter(t *testing.T) (*corpus.Writer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	writer, err := corpus.OpenWriter(path)
	if err != nil {
		t.Fatalf("OpenWriter: %v", err)
	}
	t.Cleanup(func() { _ = writer.Close() })
	if err := writer.Append([]pairs.TrainingPair{{Prompt: "Telemetry: speed 300.0. Advice:", Completion: "Box box."}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return writer, path
}

func TestStartFreshKeepsCorpusWhenLedgerResetFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	writer, path := openTestWriter(t)

	if _, err := startFresh(context.Background(), store, writer, path); err == nil {
		t.Fatal("expected reset error from closed ledger")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat corpus: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("corpus truncated although the ledger still lists its units")
	}
}

func TestStartFreshResetsLedgerThenTruncates(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	writer, path := openTestWriter(t)

	unit := telemetry.Unit{SessionKey: 9158, DriverNumber: 1}
	runID, err := store.BeginRun(ctx, path)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.MarkComplete(ctx, path, runID, unit, 1); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	removed, err := startFresh(ctx, store, writer, path)
	if err != nil {
		t.Fatalf("startFresh: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	done, err := store.IsComplete(ctx, path, unit)
	if err != nil {
		t.Fatalf("IsComplete: %v", err)
	}
	if done {
		t.Fatal("unit still complete after reset")
	}
	if lines := testsupport.ReadLines(t, path); len(lines) != 0 {
		t.Fatalf("corpus not truncated: %q", lines)
	}
}
