package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.now = func() time.Time { return now }

	if err := m.Set(ctx, "doc:1", []byte("pdf"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, "doc:1")
	if err != nil || string(got) != "pdf" {
		t.Fatalf("Get before expiry: got=%q err=%v", got, err)
	}

	now = now.Add(time.Minute)
	if _, err := m.Get(ctx, "doc:1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after expiry: want ErrMiss, got %v", err)
	}
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_ = m.Set(ctx, "pdf:a:1", []byte("1"), 0)
	_ = m.Set(ctx, "pdf:a:2", []byte("2"), 0)
	_ = m.Set(ctx, "pdf:b:1", []byte("3"), 0)

	if err := m.DeletePrefix(ctx, "pdf:a:"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := m.Get(ctx, "pdf:a:1"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected pdf:a:1 removed")
	}
	if _, err := m.Get(ctx, "pdf:b:1"); err != nil {
		t.Fatalf("expected pdf:b:1 kept, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	src := []byte("abc")
	_ = m.Set(ctx, "k", src, 0)
	src[0] = 'z'
	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
}
