package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Get returned %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected miss after delete")
	}
}

func TestVerdictCache_DefaultTTLFallback(t *testing.T) {
	c := NewVerdictCache()

	if err := c.Set("verdict", []byte("{}"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("verdict")
	if !found || string(val) != "{}" {
		t.Errorf("Get returned %q, %v; entry stored with the default TTL should be live", val, found)
	}
}

func TestKey_StableAndDistinct(t *testing.T) {
	a := Key("claim text", "macro", "cpi@2024-03-12")
	b := Key("claim text", "macro", "cpi@2024-03-12")
	if a != b {
		t.Error("Identical parts must produce identical keys")
	}

	// Part boundaries matter: ("ab","c") and ("a","bc") must differ.
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("Key must separate parts")
	}
}
