package cache

import (
	"os"
	"testing"
)

func TestEmbedCacheHitMiss(t *testing.T) {
	c := NewEmbedCache(10)

	if _, ok := c.Get("case fatality rate"); ok {
		t.Error("expected miss on empty cache")
	}

	vec := []float32{0.1, 0.2, 0.3}
	c.Put("case fatality rate", vec)

	got, ok := c.Get("case fatality rate")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Errorf("got %v", got)
	}
	if _, ok := c.Get("case fatality rate "); ok {
		t.Error("trailing space should be a different key")
	}
}

func TestEmbedCacheEviction(t *testing.T) {
	c := NewEmbedCache(2)

	c.Put("a", []float32{1})
	c.Put("b", []float32{2})
	c.Get("a") // refresh a so b is the eviction candidate
	c.Put("c", []float32{3})

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to survive")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d", c.Size())
	}
}

func TestTextCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := NewTextCache(dir)
	if err != nil {
		t.Fatalf("NewTextCache: %v", err)
	}

	if _, hit, err := c.Get("584"); err != nil || hit {
		t.Fatalf("expected clean miss, hit=%v err=%v", hit, err)
	}

	if err := c.Put("584", "full text of paper 584"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	text, hit, err := c.Get("584")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || text != "full text of paper 584" {
		t.Errorf("hit=%v text=%q", hit, text)
	}

	// The file itself is the cache entry.
	if _, err := os.Stat(c.Path("584")); err != nil {
		t.Errorf("expected cache file on disk: %v", err)
	}
}
