package session

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/research-assistant/internal/core/domain"
)

func TestStorePutGetDelete(t *testing.T) {
	store := NewStore(time.Minute, time.Minute)
	ctx := context.Background()

	sess := domain.NewSession("sess-1", time.Now().UTC())
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "sess-1" {
		t.Fatalf("unexpected session id %s", got.ID)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Count())
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	store := NewStore(time.Minute, time.Minute)
	if _, err := store.Get(context.Background(), "missing"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreRejectsEmptyID(t *testing.T) {
	store := NewStore(time.Minute, time.Minute)
	err := store.Put(context.Background(), domain.NewSession("", time.Now()))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStoreTTLEviction(t *testing.T) {
	store := NewStore(10*time.Millisecond, 5*time.Millisecond)
	ctx := context.Background()

	if err := store.Put(ctx, domain.NewSession("sess-ttl", time.Now())); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := store.Get(ctx, "sess-ttl"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}
