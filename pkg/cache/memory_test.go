package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSetGet(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "value", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "value" {
		t.Errorf("got %q", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var got string
	if err := mc.Get(context.Background(), "absent", &got); err != ErrCacheMiss {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "k", "v", time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	var got string
	if err := mc.Get(ctx, "k", &got); err != ErrCacheMiss {
		t.Errorf("err = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", "1", time.Minute)
	_ = mc.Set(ctx, "b", "2", time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	var got string
	_ = mc.Get(ctx, "a", &got)
	_ = mc.Set(ctx, "c", "3", time.Minute)

	if err := mc.Get(ctx, "b", &got); err != ErrCacheMiss {
		t.Errorf("b should have been evicted, err = %v", err)
	}
	if err := mc.Get(ctx, "a", &got); err != nil {
		t.Errorf("a should survive, err = %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}
	if ok, _ := mc.TryLock(ctx, "lock:k", time.Minute); ok {
		t.Error("second lock should fail while held")
	}
	if err := mc.Unlock(ctx, "lock:k"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, _ := mc.TryLock(ctx, "lock:k", time.Minute); !ok {
		t.Error("lock should be available after unlock")
	}
}

func TestKey(t *testing.T) {
	if got := Key("advice", "AAPL", "next_quarter"); got != "advice:AAPL:next_quarter" {
		t.Errorf("got %q", got)
	}
	if got := Key("lock"); got != "lock" {
		t.Errorf("got %q", got)
	}
}
