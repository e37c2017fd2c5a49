package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGetDelete(t *testing.T) {
	c := NewMemory("test")
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	// Borrar una key inexistente no es error.
	if err := c.Delete(ctx, "nunca-existio"); err != nil {
		t.Fatalf("Delete missing key: %v", err)
	}
}

func TestMemoryMissingKey(t *testing.T) {
	c := NewMemory("")
	if _, err := c.Get(context.Background(), "missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()

	if err := c.Set(ctx, "ephemeral", "v", 30*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := c.Get(ctx, "ephemeral"); err != nil {
		t.Fatalf("key should still be alive: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	// Expirada e inexistente son indistinguibles.
	if _, err := c.Get(ctx, "ephemeral"); !IsNotFound(err) {
		t.Fatalf("expected not found after TTL, got %v", err)
	}
}

func TestMemoryOverwrite(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()

	_ = c.Set(ctx, "k", "old", 0)
	_ = c.Set(ctx, "k", "new", 0)
	got, _ := c.Get(ctx, "k")
	if got != "new" {
		t.Fatalf("Get = %q", got)
	}
}

func TestMemoryPrefixIsolation(t *testing.T) {
	a := NewMemory("a")
	b := NewMemory("b")
	ctx := context.Background()

	_ = a.Set(ctx, "k", "va", 0)
	if _, err := b.Get(ctx, "k"); !IsNotFound(err) {
		t.Fatal("prefixes must isolate keys between clients")
	}
}

func TestMemoryStats(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()

	_ = c.Set(ctx, "k", "v", 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Driver != "memory" || st.Keys != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestNewDriverSelection(t *testing.T) {
	c, err := New(Config{Driver: "memory", Prefix: "p"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.(*memoryClient); !ok {
		t.Fatalf("expected memory client, got %T", c)
	}

	// Driver vacío cae a memory.
	c, _ = New(Config{})
	if _, ok := c.(*memoryClient); !ok {
		t.Fatalf("expected memory client for empty driver, got %T", c)
	}
}
