package claims_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mixvault/internal/claims"
	"mixvault/internal/logging"
	"mixvault/internal/testsupport"
)

func TestClaimExcludesConcurrentHolder(t *testing.T) {
	locker, err := claims.New(t.TempDir(), 150*time.Millisecond, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	release, err := locker.Claim(ctx, "youtube", "yt:abc")
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	if _, err := locker.Claim(ctx, "youtube", "yt:abc"); !errors.Is(err, claims.ErrClaimTimeout) {
		t.Fatalf("expected timeout while held, got %v", err)
	}

	other, err := locker.Claim(ctx, "youtube", "yt:def")
	if err != nil {
		t.Fatalf("independent claim failed: %v", err)
	}
	other()

	release()
	again, err := locker.Claim(ctx, "youtube", "yt:abc")
	if err != nil {
		t.Fatalf("claim after release failed: %v", err)
	}
	again()
}

func TestClaimHonorsCancellation(t *testing.T) {
	locker, err := claims.New(t.TempDir(), time.Minute, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	release, err := locker.Claim(context.Background(), "soundcloud", "sc:1")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Claim(ctx, "soundcloud", "sc:1")
	if err == nil || errors.Is(err, claims.ErrClaimTimeout) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestPathIsStableAndDistinct(t *testing.T) {
	locker, err := claims.New(t.TempDir(), time.Second, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	a := locker.Path("youtube", "yt:a.b")
	if a != locker.Path("youtube", "yt:a.b") {
		t.Fatal("path should be deterministic")
	}
	if a == locker.Path("youtube", "yt:a_b") {
		t.Fatal("distinct ids should not share a lock file")
	}
	if !strings.Contains(a, "claim-youtube-") {
		t.Fatalf("unexpected path %s", a)
	}
}

func TestNewFromConfigDisabledByDefault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	locker, err := claims.NewFromConfig(cfg, logging.NewNop())
	if err != nil || locker != nil {
		t.Fatalf("expected no locker when claims are off, got %v %v", locker, err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithClaimLocks())
	locker, err = claims.NewFromConfig(cfg, logging.NewNop())
	if err != nil || locker == nil {
		t.Fatalf("expected locker, got %v %v", locker, err)
	}
}
