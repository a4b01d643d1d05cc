package toolchain

import (
	"os"

	"github.com/BurntSushi/toml"
)

// CacheFile is the default probe-result cache path written alongside the
// generated Makefile. It supplements the always-reprobe original: compiling
// the same snippet on every configure invocation is wasted work once the
// toolchain and option inputs have not changed.
const CacheFile = ".forgemk-cache.toml"

// cacheDocument is the on-disk shape of the cache file.
type cacheDocument struct {
	Entries map[string]bool `toml:"entries"`
}

// Cache maps a probe fingerprint (toolchain name + compiler program +
// snippet content) to its last observed boolean result.
type Cache struct {
	path    string
	entries map[string]bool
	dirty   bool
}

// LoadCache reads path if present; a missing or unreadable cache starts
// empty rather than failing configure.
func LoadCache(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]bool)}
	var doc cacheDocument
	if _, err := toml.DecodeFile(path, &doc); err == nil {
		c.entries = doc.Entries
		if c.entries == nil {
			c.entries = make(map[string]bool)
		}
	}
	return c
}

// Get returns a cached result for fingerprint, if any.
func (c *Cache) Get(fingerprint string) (bool, bool) {
	v, ok := c.entries[fingerprint]
	return v, ok
}

// Set records a probe result, marking the cache dirty for the next Save.
func (c *Cache) Set(fingerprint string, value bool) {
	c.entries[fingerprint] = value
	c.dirty = true
}

// Save writes the cache back to disk if it changed since load.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cacheDocument{Entries: c.entries})
}
