package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroom-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	if err := store.Create(ctx, "s-1", 7, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	userID, err := store.Lookup(ctx, "s-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if userID != 7 {
		t.Fatalf("expected user 7, got %d", userID)
	}

	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Lookup(ctx, "s-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Create(ctx, "s-1", 7, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := store.Lookup(ctx, "s-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}
