package buildcache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	hash1 := HashFile(path)
	require.NotEmpty(t, hash1)
	assert.Len(t, hash1, 32)

	path2 := filepath.Join(dir, "test2.txt")
	require.NoError(t, os.WriteFile(path2, []byte("hello world"), 0o644))
	assert.Equal(t, hash1, HashFile(path2), "same content, same hash")
	assert.Equal(t, hash1, HashString("hello world"))

	path3 := filepath.Join(dir, "test3.txt")
	require.NoError(t, os.WriteFile(path3, []byte("hello world!"), 0o644))
	assert.NotEqual(t, hash1, HashFile(path3))

	assert.Empty(t, HashFile(filepath.Join(dir, "nonexistent")))
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "nested", ".svdts-cache.json")

	assert.Nil(t, Load(cachePath), "non-existent file is a miss")

	original := New("abc123")
	original.Record("src/Button.svelte.d.ts", Entry{Input: "i", Docs: "d", Output: "o"})
	require.NoError(t, Save(cachePath, original))

	loaded := Load(cachePath)
	require.NotNil(t, loaded)
	assert.Equal(t, SchemaVersion, loaded.V)
	assert.Equal(t, "abc123", loaded.ConfigHash)
	e, ok := loaded.Lookup("src/Button.svelte.d.ts")
	require.True(t, ok)
	assert.Equal(t, Entry{Input: "i", Docs: "d", Output: "o"}, e)

	_, err := os.Stat(cachePath + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")
}

func TestLoadCorruptedFile(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "corrupted.json")
	require.NoError(t, os.WriteFile(cachePath, []byte("not json at all {{{"), 0o644))
	assert.Nil(t, Load(cachePath))
}

func TestLoadEmptyFile(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(cachePath, nil, 0o644))
	assert.Nil(t, Load(cachePath))
}

func TestIsValid(t *testing.T) {
	var nilCache *Cache
	assert.False(t, nilCache.IsValid("anything"))

	assert.False(t, (&Cache{V: SchemaVersion + 1, ConfigHash: "abc"}).IsValid("abc"))
	assert.False(t, (&Cache{V: SchemaVersion, ConfigHash: "old"}).IsValid("new"))
	assert.True(t, New("abc").IsValid("abc"))
}

func TestOpen_DiscardsOnConfigChange(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.json")
	c := New("v1")
	c.Record("a", Entry{Input: "1", Output: "2"})
	require.NoError(t, Save(cachePath, c))

	_, ok := Open(cachePath, "v1").Lookup("a")
	assert.True(t, ok)

	reopened := Open(cachePath, "v2")
	assert.Equal(t, "v2", reopened.ConfigHash)
	_, ok = reopened.Lookup("a")
	assert.False(t, ok)
}

func TestFresh(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.d.ts")
	require.NoError(t, os.WriteFile(out, []byte("rewritten"), 0o644))
	outHash := HashString("rewritten")

	c := New("cfg")
	c.Record("k", Entry{Input: "in", Docs: "docs", Output: outHash})

	tests := []struct {
		name  string
		input string
		docs  string
		path  string
		want  bool
	}{
		{"unchanged input and docs", "in", "docs", out, true},
		{"in-place output re-read", outHash, "docs", out, true},
		{"in-place output with changed docs", outHash, "other-docs", out, false},
		{"input changed", "in2", "docs", out, false},
		{"docs changed", "in", "docs2", out, false},
		{"output missing", "in", "docs", filepath.Join(dir, "missing.d.ts"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Fresh("k", tt.input, tt.docs, tt.path))
		})
	}

	assert.False(t, c.Fresh("unknown", "in", "docs", out))

	require.NoError(t, os.WriteFile(out, []byte("edited by hand"), 0o644))
	assert.False(t, c.Fresh("k", "in", "docs", out), "modified output is stale")
}

func TestLookup_NilCache(t *testing.T) {
	var c *Cache
	_, ok := c.Lookup("k")
	assert.False(t, ok)
	assert.False(t, c.Fresh("k", "in", "docs", ""))
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, Save(path, New("cfg")))

	require.NoError(t, Delete(path))
	assert.Nil(t, Load(path))
	assert.NoError(t, Delete(path), "missing file is not an error")
}

func TestRetainAndForget(t *testing.T) {
	c := New("cfg")
	c.Record("a", Entry{})
	c.Record("b", Entry{})
	c.Record("c", Entry{})

	c.Forget("c")
	c.Retain(map[string]bool{"a": true})

	_, ok := c.Lookup("a")
	assert.True(t, ok)
	_, ok = c.Lookup("b")
	assert.False(t, ok)
	assert.Len(t, c.Files, 1)
}

func TestRecordConcurrent(t *testing.T) {
	c := New("cfg")
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Record(HashString(string(rune('a'+i))), Entry{Input: "x"})
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.Files, 32)
}
