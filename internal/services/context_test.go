package services_test

import (
	"context"
	"testing"

	"radiocorpus/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUnit(ctx, 9158, 44)
	ctx = services.WithStage(ctx, "transcribe")
	ctx = services.WithRunID(ctx, "run-123")

	if s, d, ok := services.UnitFromContext(ctx); !ok || s != 9158 || d != 44 {
		t.Fatalf("unexpected unit: %d %d %v", s, d, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribe" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, _, ok := services.UnitFromContext(ctx); ok {
		t.Fatal("expected no unit value")
	}
}
