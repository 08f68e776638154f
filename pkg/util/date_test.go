package util

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	if _, ok := ParseTime(""); ok {
		t.Fatal("empty string should not parse")
	}
	if _, ok := ParseTime("not-a-time"); ok {
		t.Fatal("garbage should not parse")
	}

	got, ok := ParseTime("2026-08-27T10:00:00Z")
	if !ok {
		t.Fatal("RFC3339 should parse")
	}
	want := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, ok = ParseTime("1756288800")
	if !ok {
		t.Fatal("unix seconds should parse")
	}
	if got.Unix() != 1756288800 {
		t.Fatalf("got unix %d", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("got %v, want default", got)
	}
	if got := ParseTimeDefault("2026-08-27T10:00:00Z", def); got.Equal(def) {
		t.Fatal("valid input should not return default")
	}
}
