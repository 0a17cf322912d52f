package services_test

import (
	"errors"
	"strings"
	"testing"

	"radiocorpus/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisperx", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Outcome
	}{
		{"nil", nil, services.OutcomeComplete},
		{"not found", services.Wrap(services.ErrNotFound, "openf1", "car_data", "no rows", nil), services.OutcomeComplete},
		{"transient", services.Wrap(services.ErrTransient, "openf1", "team_radio", "503", errors.New("io")), services.OutcomeRetry},
		{"timeout", services.Wrap(services.ErrTimeout, "transcribe", "run", "deadline", nil), services.OutcomeRetry},
		{"configuration", services.Wrap(services.ErrConfiguration, "pipeline", "open", "bad path", nil), services.OutcomeAbort},
		{"validation", services.Wrap(services.ErrValidation, "pipeline", "open", "bad", nil), services.OutcomeAbort},
		{"plain", errors.New("x"), services.OutcomeRetry},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Classify(tc.err); got != tc.want {
				t.Fatalf("Classify() = %s, want %s", got, tc.want)
			}
		})
	}
}
