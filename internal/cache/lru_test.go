package cache

import (
	"testing"
	"time"
)

func TestGetSetDelete(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache should miss")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("Get(a) after overwrite = %d, want 2", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("Get(a) after Delete should miss")
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh a, making b the eviction candidate
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be cached")
	}
	if c.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", c.Size())
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestCleanExpired(t *testing.T) {
	c := New[string](10, 10*time.Millisecond)

	c.Set("a", "1")
	c.Set("b", "2")
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", "3")

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired() = %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}
