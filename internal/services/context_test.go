package services_test

import (
	"context"
	"testing"

	"mixvault/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRawMixID(ctx, 42)
	ctx = services.WithStage(ctx, "canonicalize")
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithProvider(ctx, "youtube")

	if id, ok := services.RawMixIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected raw mix id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "canonicalize" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
	if provider, ok := services.ProviderFromContext(ctx); !ok || provider != "youtube" {
		t.Fatalf("unexpected provider: %v %v", provider, ok)
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
	if _, ok := services.RawMixIDFromContext(ctx); ok {
		t.Fatal("expected no raw mix id value")
	}
}
