package util

import "testing"

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %d (%v)", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("expected len 2, got %d", c.Len())
	}
}

func TestLRUCacheUpdateAndClear(t *testing.T) {
	c := NewLRUCache[string, int](0)
	c.Put("a", 1)
	c.Put("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("expected updated value 2, got %d", v)
	}
	c.Evict("a")
	if c.Len() != 0 {
		t.Errorf("expected empty cache after evict, got %d", c.Len())
	}
	c.Put("b", 1)
	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("expected cache to be empty after Clear")
	}
}
