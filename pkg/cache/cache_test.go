package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetAfterSet(t *testing.T) {
	c := New[string]()
	c.Set("user1:both", "bundle")

	got, ok := c.Get("user1:both")
	if !ok {
		t.Fatal("expected cache hit immediately after Set")
	}
	if got != "bundle" {
		t.Errorf("Get returned %q, want %q", got, "bundle")
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New[int]()
	if _, ok := c.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiredEntryRemovedOnRead(t *testing.T) {
	c := NewWithOptions[string](15*time.Minute, 100)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", "v")

	// Advance past the TTL
	c.now = func() time.Time { return base.Add(16 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, len = %d", c.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := NewWithOptions[int](15*time.Minute, 100)

	base := time.Now()
	for i := 0; i < 100; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return at }
		c.Set(fmt.Sprintf("key%d", i), i)
	}
	if c.Len() != 100 {
		t.Fatalf("len = %d, want 100", c.Len())
	}

	at := base.Add(200 * time.Second)
	c.now = func() time.Time { return at }
	c.Set("key100", 100)

	if c.Len() != 100 {
		t.Fatalf("after 101st insert len = %d, want 100", c.Len())
	}
	// key0 carried the oldest timestamp
	if _, ok := c.Get("key0"); ok {
		t.Error("oldest entry key0 should have been evicted")
	}
	if _, ok := c.Get("key1"); !ok {
		t.Error("key1 should survive eviction")
	}
	if _, ok := c.Get("key100"); !ok {
		t.Error("newly inserted key100 should be present")
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := NewWithOptions[int](15*time.Minute, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)

	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
	if got, _ := c.Get("a"); got != 3 {
		t.Errorf("a = %d, want 3", got)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should not have been evicted by overwrite of a")
	}
}
