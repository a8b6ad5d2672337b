package cache

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New[string, int]()
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.Size() != 0 {
		t.Errorf("expected size 0, got %d", c.Size())
	}
}

func TestSet(t *testing.T) {
	c := New[string, int]()

	c.Set("key1", 100)
	if c.Size() != 1 {
		t.Errorf("expected size 1, got %d", c.Size())
	}

	c.Set("key2", 200)
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}

	c.Set("key1", 150)
	if c.Size() != 2 {
		t.Errorf("expected size 2 after overwrite, got %d", c.Size())
	}
}

func TestGet(t *testing.T) {
	c := New[string, int]()
	_, ok := c.Get("nonexistent")
	if ok {
		t.Error("expected ok=false for non-existent key")
	}

	c.Set("key1", 100)
	val, ok := c.Get("key1")
	if !ok {
		t.Error("expected ok=true for existing key")
	}
	if val != 100 {
		t.Errorf("expected value 100, got %d", val)
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int]()

	c.Delete("nonexistent")
	c.Set("key1", 100)
	c.Set("key2", 200)

	c.Delete("key1")
	if c.Size() != 1 {
		t.Errorf("expected size 1 after delete, got %d", c.Size())
	}

	_, ok := c.Get("key1")
	if ok {
		t.Error("expected key1 to be deleted")
	}

	val, ok := c.Get("key2")
	if !ok || val != 200 {
		t.Error("expected key2 to still exist with value 200")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("key1", 100)
	if _, ok := c.Get("key1"); !ok {
		t.Error("expected fresh entry to be present")
	}

	current = current.Add(time.Minute + time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Error("expected expired entry to miss")
	}

	if c.Size() != 0 {
		t.Errorf("expected expired entry to be removed, size %d", c.Size())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New[string, int]()

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Set("key1", 100)
	current = current.Add(24 * time.Hour)

	if _, ok := c.Get("key1"); !ok {
		t.Error("expected entry without ttl to survive")
	}
}

func TestKeys(t *testing.T) {
	c := New[string, int]()
	c.Set("key1", 1)
	c.Set("key2", 2)

	keys := c.Keys()
	if len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d", len(keys))
	}
}
