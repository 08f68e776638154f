package ratelimit

import "testing"

func TestAllowBurstThenDeny(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		if !l.Allow("ip:1", 3, 0) {
			t.Fatalf("request %d should be within burst", i+1)
		}
	}
	if l.Allow("ip:1", 3, 0) {
		t.Error("request past burst should be denied")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("ip:1", 1, 0) {
		t.Fatal("first request denied")
	}
	if l.Allow("ip:1", 1, 0) {
		t.Error("exhausted key should be denied")
	}
	if !l.Allow("ip:2", 1, 0) {
		t.Error("fresh key should have its own bucket")
	}
}
