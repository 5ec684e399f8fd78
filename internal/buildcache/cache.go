// Package buildcache records what each declaration looked like the last time
// it was rewritten, so unchanged files can be skipped.
//
// Every entry stores three content hashes: the declaration as it was read,
// the documentation it was merged with, and the text that was written. A file
// is fresh when its docs are unchanged and either its current content is the
// recorded output (an in-place rewrite that already ran) or its input is
// unchanged and the written output is still on disk untouched.
//
// The whole cache is discarded when the schema version or the config
// fingerprint differs.
package buildcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/zeebo/xxh3"
)

// SchemaVersion is bumped when the cache format or the rewrite output changes.
// A mismatch forces a full rebuild, so binary upgrades don't keep stale outputs.
const SchemaVersion = 1

// Entry is the recorded state of one declaration file.
type Entry struct {
	Input  string `json:"input"`
	Docs   string `json:"docs,omitempty"`
	Output string `json:"output"`
}

// Cache represents the on-disk build cache. It is safe for concurrent use.
type Cache struct {
	// V is the schema version. Must match SchemaVersion or cache is invalid.
	V int `json:"v"`

	// ConfigHash is the hash of the output-affecting config settings.
	ConfigHash string `json:"configHash"`

	// Files is keyed by declaration path relative to the root directory.
	Files map[string]Entry `json:"files"`

	mu sync.Mutex
}

// New creates an empty Cache with the current schema version.
func New(configHash string) *Cache {
	return &Cache{
		V:          SchemaVersion,
		ConfigHash: configHash,
		Files:      make(map[string]Entry),
	}
}

// Load reads and parses a cache file from disk.
// Returns nil if the file doesn't exist, is unreadable, or is invalid JSON.
// Callers should treat nil as a cache miss.
func Load(path string) *Cache {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	if c.Files == nil {
		c.Files = make(map[string]Entry)
	}
	return &c
}

// Open loads the cache at path and returns it if it is valid for configHash.
// Otherwise it returns a fresh empty cache.
func Open(path, configHash string) *Cache {
	if c := Load(path); c.IsValid(configHash) {
		return c
	}
	return New(configHash)
}

// Save writes the cache to disk atomically (write to temp, rename).
// A failed save only means the next build won't benefit from caching.
func Save(path string, cache *Cache) error {
	cache.mu.Lock()
	data, err := json.Marshal(cache, json.Deterministic(true), jsontext.WithIndent("  "))
	cache.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "marshaling cache")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating cache directory %s", dir)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "writing cache temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "renaming cache file")
	}
	return nil
}

// Delete removes the cache file from disk. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "removing cache file %s", path)
	}
	return nil
}

// IsValid reports whether the cache was written by this schema version for
// the same config fingerprint.
func (c *Cache) IsValid(currentConfigHash string) bool {
	if c == nil {
		return false
	}
	return c.V == SchemaVersion && c.ConfigHash == currentConfigHash
}

// Lookup returns the entry recorded for key. A nil cache has no entries.
func (c *Cache) Lookup(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.Files[key]
	return e, ok
}

// Record stores the state of key after a successful rewrite.
func (c *Cache) Record(key string, e Entry) {
	c.mu.Lock()
	c.Files[key] = e
	c.mu.Unlock()
}

// Forget drops key, e.g. after a failed rewrite.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	delete(c.Files, key)
	c.mu.Unlock()
}

// Retain drops every entry whose key is not in keep.
func (c *Cache) Retain(keep map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.Files {
		if !keep[k] {
			delete(c.Files, k)
		}
	}
}

// Fresh reports whether key can be skipped. inputHash and docsHash describe
// the current input; outputPath is where the rewrite would be written.
func (c *Cache) Fresh(key, inputHash, docsHash, outputPath string) bool {
	if c == nil {
		return false
	}
	e, ok := c.Lookup(key)
	if !ok {
		return false
	}
	if inputHash == e.Output {
		// Rewritten in place. Docs that changed since cannot be applied to
		// the rewritten text, so the caller has to look at it.
		return docsHash == e.Docs
	}
	if inputHash != e.Input || docsHash != e.Docs {
		return false
	}
	return HashFile(outputPath) == e.Output
}

// HashBytes returns the hex xxh3-128 digest of data.
func HashBytes(data []byte) string {
	h := xxh3.Hash128(data)
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// HashString is HashBytes for strings.
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashFile computes the digest of a file's contents.
// Returns empty string if the file doesn't exist or can't be read.
func HashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return HashBytes(data)
}
