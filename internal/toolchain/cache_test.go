package toolchain

import (
	"path/filepath"
	"testing"
)

func TestCacheMissingFileStartsEmpty(t *testing.T) {
	c := LoadCache(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if _, ok := c.Get("anything"); ok {
		t.Fatal("expected no entries for a missing cache file")
	}
}

func TestCacheSetSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")

	c := LoadCache(path)
	c.Set("gcc:pthread:snippet-hash", true)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := LoadCache(path)
	v, ok := reloaded.Get("gcc:pthread:snippet-hash")
	if !ok || !v {
		t.Fatalf("Get after reload = (%v, %v), want (true, true)", v, ok)
	}
}

func TestCacheSaveIsNoopWhenNotDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")
	c := LoadCache(path)
	if err := c.Save(); err != nil {
		t.Fatalf("Save on clean cache: %v", err)
	}
	if _, ok := LoadCache(path).Get("x"); ok {
		t.Fatal("expected no cache file to have been written")
	}
}
