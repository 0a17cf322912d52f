package services

import "context"

type contextKey string

const (
	sessionKeyKey   contextKey = "session_key"
	driverNumberKey contextKey = "driver_number"
	stageKey        contextKey = "stage"
	runIDKey        contextKey = "run_id"
)

// WithUnit annotates context with the session and driver being processed.
func WithUnit(ctx context.Context, sessionKey, driverNumber int) context.Context {
	ctx = context.WithValue(ctx, sessionKeyKey, sessionKey)
	return context.WithValue(ctx, driverNumberKey, driverNumber)
}

// UnitFromContext returns the session key and driver number if present.
func UnitFromContext(ctx context.Context) (sessionKey, driverNumber int, ok bool) {
	s, okS := ctx.Value(sessionKeyKey).(int)
	d, okD := ctx.Value(driverNumberKey).(int)
	if !okS || !okD {
		return 0, 0, false
	}
	return s, d, true
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the build run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
