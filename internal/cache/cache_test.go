package cache

import (
	"context"
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](time.Minute)
	defer c.Close()

	c.Set(ctx, "fast", 42, time.Minute)

	got, ok := c.Get(ctx, "fast")
	if !ok || got != 42 {
		t.Errorf("Get() = %d, %v; want 42, true", got, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get() on missing key should miss")
	}
}

func TestCache_EntryExpires(t *testing.T) {
	ctx := context.Background()
	c := New[string, int](time.Minute)
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", 1, 10*time.Second)

	now = now.Add(9 * time.Second)
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("entry expired too early")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, expired entry should be removed", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](time.Minute)
	defer c.Close()

	c.Set(ctx, "k", "v", 0)
	c.Delete(ctx, "k")

	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("deleted key still present")
	}
}

func TestCache_SizeBound(t *testing.T) {
	ctx := context.Background()
	c := NewWithSize[int, int](2, time.Minute)
	defer c.Close()

	c.Set(ctx, 1, 1, 0)
	c.Set(ctx, 2, 2, 0)
	c.Set(ctx, 3, 3, 0)

	if _, ok := c.Get(ctx, 1); ok {
		t.Error("oldest entry should be evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
