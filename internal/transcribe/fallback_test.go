package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"radiocorpus/internal/services"
)

type scriptedEngine struct {
	calls   []string
	results map[int]string
	errs    map[int]error
}

func (e *scriptedEngine) Transcribe(_ context.Context, path string) (string, error) {
	i := len(e.calls)
	e.calls = append(e.calls, path)
	if err := e.errs[i]; err != nil {
		return "", err
	}
	return e.results[i], nil
}

func writeAudio(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "radio_1_44_20230305_151042.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func okDecoder() *Decoder {
	return NewDecoder("ffmpeg").WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})
}

func TestFallbackUsesDecodedVariantFirst(t *testing.T) {
	dir := t.TempDir()
	src := writeAudio(t, dir)
	engine := &scriptedEngine{results: map[int]string{0: "  Box box  "}}

	text, err := NewFallback(engine, okDecoder(), filepath.Join(dir, "wav"), nil).Transcribe(context.Background(), src)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Box box" {
		t.Fatalf("text = %q", text)
	}
	if len(engine.calls) != 1 || !strings.HasSuffix(engine.calls[0], ".decoded.wav") {
		t.Fatalf("unexpected calls %v", engine.calls)
	}
	if _, err := os.Stat(engine.calls[0]); !os.IsNotExist(err) {
		t.Fatal("decoded wav should be removed")
	}
}

func TestFallbackContinuesPastEmptyAndErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeAudio(t, dir)
	engine := &scriptedEngine{
		results: map[int]string{0: "   ", 2: "Copy"},
		errs:    map[int]error{1: errors.New("file not found")},
	}

	text, err := NewFallback(engine, okDecoder(), "", nil).Transcribe(context.Background(), src)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Copy" {
		t.Fatalf("text = %q", text)
	}
	if len(engine.calls) != 3 {
		t.Fatalf("expected three attempts, got %v", engine.calls)
	}
	if engine.calls[1] != src {
		t.Fatalf("second attempt should use the absolute path, got %q", engine.calls[1])
	}
	if filepath.IsAbs(engine.calls[2]) {
		t.Fatalf("third attempt should be relative, got %q", engine.calls[2])
	}
}

func TestFallbackAllFail(t *testing.T) {
	dir := t.TempDir()
	src := writeAudio(t, dir)
	boom := errors.New("decoder crashed")
	engine := &scriptedEngine{errs: map[int]error{0: boom, 1: boom}}

	_, err := NewFallback(engine, nil, "", nil).Transcribe(context.Background(), src)
	if !errors.Is(err, ErrNoTranscript) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrNoTranscript wrapping last error, got %v", err)
	}
	if len(engine.calls) != 2 {
		t.Fatalf("expected absolute and relative attempts, got %v", engine.calls)
	}
}

func TestFallbackSkipsFailedDecode(t *testing.T) {
	dir := t.TempDir()
	src := writeAudio(t, dir)
	decoder := NewDecoder("ffmpeg").WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("unsupported codec")
	})
	engine := &scriptedEngine{results: map[int]string{0: "Push now"}}

	text, err := NewFallback(engine, decoder, "", nil).Transcribe(context.Background(), src)
	if err != nil || text != "Push now" {
		t.Fatalf("Transcribe = %q, %v", text, err)
	}
	if engine.calls[0] != src {
		t.Fatalf("expected absolute path first, got %q", engine.calls[0])
	}
}

func TestFallbackRejectsMissingAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	engine := &scriptedEngine{}
	fb := NewFallback(engine, nil, "", nil)

	if _, err := fb.Transcribe(context.Background(), filepath.Join(dir, "missing.mp3")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := fb.Transcribe(context.Background(), empty); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(engine.calls) != 0 {
		t.Fatalf("engine should not run, got %v", engine.calls)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("dedupe = %v", got)
	}
}
