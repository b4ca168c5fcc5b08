package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("k", "v", time.Minute)
	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("Get=%v,%v, want v,true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("missing key should not be found")
	}
}

func TestCache_LazyExpiry(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	c := New()
	c.now = func() time.Time { return now }

	c.Set("k", 42, time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry should be live before ttl")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should have expired")
	}
	// The stale entry is evicted on read, not kept around.
	c.mu.Lock()
	_, present := c.entries["k"]
	c.mu.Unlock()
	if present {
		t.Fatalf("expired entry should be evicted on read")
	}
}

func TestGetAs_TypeMismatchIsMiss(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("k", "string-value", time.Minute)
	if _, ok := GetAs[int](c, "k"); ok {
		t.Fatalf("type mismatch should behave like a miss")
	}
	if v, ok := GetAs[string](c, "k"); !ok || v != "string-value" {
		t.Fatalf("GetAs[string]=%q,%v", v, ok)
	}
}

func TestKeyDerivation(t *testing.T) {
	t.Parallel()

	if got := DraftKey("Tell me  about YOURSELF", "general"); got != "kb:draft:tell-me-about-yourself:general" {
		t.Fatalf("DraftKey=%q", got)
	}
	if got := TopicKey("capital-one", "full"); got != "kb:topic:capital-one:full" {
		t.Fatalf("TopicKey=%q", got)
	}
	if got := PageKey("kb:draft:x:general"); got != "kb:draft:x:general:pagejson" {
		t.Fatalf("PageKey=%q", got)
	}
}
