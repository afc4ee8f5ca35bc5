package ctxutil

import (
	"context"
	"testing"
)

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	if id == "" {
		t.Fatalf("expected a generated trace id")
	}

	again, id2 := EnsureTraceID(ctx)
	if id2 != id {
		t.Errorf("expected existing trace id %q to be kept, got %q", id, id2)
	}
	if GetTraceID(again) != id {
		t.Errorf("expected trace id to be readable from context")
	}
}

func TestGetTraceIDNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated
	if got := GetTraceID(nil); got != "" {
		t.Errorf("expected empty trace id, got %q", got)
	}
}
