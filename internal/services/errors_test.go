package services_test

import (
	"errors"
	"strings"
	"testing"

	"mixvault/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStore, "canonicalize", "insert mix", "write failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStore) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"canonicalize", "insert mix", "write failed"} {
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
	if !strings.Contains(err.Error(), "canonicalization failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsNotFound(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "canonicalize", "load raw mix", "raw mix 7", nil)
	if !services.IsNotFound(err) {
		t.Fatalf("expected not found classification for %v", err)
	}
	if services.IsNotFound(errors.New("other")) {
		t.Fatal("unexpected not found classification")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "canonicalize", "load", "", nil), "not_found"},
		{services.Wrap(services.ErrValidation, "canonicalize", "options", "", nil), "validation"},
		{services.Wrap(services.ErrStore, "canonicalize", "create mix", "", errors.New("disk full")), "store"},
		{services.Wrap(nil, "", "", "", nil), "transient"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
