package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroom-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr))
	ctx := context.Background()

	if err := store.Create(ctx, "abc", 42, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("classroom:session:abc") {
		t.Fatalf("expected redis key to be set")
	}
	userID, err := store.Lookup(ctx, "abc")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected user 42, got %d", userID)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("classroom:session:abc") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, err := store.Lookup(ctx, "abc"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr))
	ctx := context.Background()
	if err := store.Create(ctx, "abc", 42, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	mr.FastForward(time.Minute + time.Second)
	if _, err := store.Lookup(ctx, "abc"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}
