package pipeline

import (
	"context"

	"radiocorpus/internal/pairs"
	"radiocorpus/internal/telemetry"
)

// Source provides sessions, telemetry and radio. Empty results are reported
// as errors marked services.ErrNotFound.
type Source interface {
	Sessions(ctx context.Context, year int, sessionType string) ([]telemetry.Session, error)
	DriversWithRadio(ctx context.Context, sessionKey int) ([]int, error)
	CarData(ctx context.Context, sessionKey, driverNumber int) ([]telemetry.Sample, error)
	TeamRadio(ctx context.Context, sessionKey, driverNumber int) ([]telemetry.RadioEvent, error)
}

// Fetcher stores the recording of a radio event locally.
type Fetcher interface {
	Download(ctx context.Context, ev telemetry.RadioEvent) (string, error)
}

// Transcriber converts a local recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Sink receives the pairs of each completed unit.
type Sink interface {
	Append(records []pairs.TrainingPair) error
}

// Progress remembers completed units across runs.
type Progress interface {
	IsComplete(ctx context.Context, outputPath string, unit telemetry.Unit) (bool, error)
	MarkComplete(ctx context.Context, outputPath, runID string, unit telemetry.Unit, pairs int) error
}
