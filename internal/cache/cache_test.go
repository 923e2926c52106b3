package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxEntries int) (*Cache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary_cache.json")
	return New(path, maxEntries), path
}

func TestGetSetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, 10)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache should miss")
	}

	entry := Entry{Content: "# Summary", ChunksUsed: 3, Truncated: true}
	if err := c.Set("k1", entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get("k1")
	if !ok {
		t.Fatal("Get() should hit after Set()")
	}
	if got.Content != entry.Content || got.ChunksUsed != 3 || !got.Truncated {
		t.Errorf("Get() = %+v, want content/chunks/truncated preserved", got)
	}
	if got.UpdatedAt == 0 {
		t.Error("Set() should stamp the update time")
	}
}

func TestSetIdempotent(t *testing.T) {
	c, _ := newTestCache(t, 10)

	entry := Entry{Content: "text", ChunksUsed: 1}
	if err := c.Set("k", entry); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("k", entry); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("k")
	if !ok || got.Content != "text" {
		t.Errorf("repeated Set() changed the stored content: %+v", got)
	}
	entries, _ := c.Stats()
	if entries != 1 {
		t.Errorf("repeated Set() with the same key created %d entries, want 1", entries)
	}
}

func TestPersistenceAcrossInstances(t *testing.T) {
	c, path := newTestCache(t, 10)
	if err := c.Set("k", Entry{Content: "persisted", ChunksUsed: 2}); err != nil {
		t.Fatal(err)
	}

	reopened := New(path, 10)
	got, ok := reopened.Get("k")
	if !ok || got.Content != "persisted" {
		t.Errorf("reopened cache lost the entry: %+v, ok=%v", got, ok)
	}
}

func TestCorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(path, 10)
	entries, fingerprints := c.Stats()
	if entries != 0 || fingerprints != 0 {
		t.Errorf("corrupt cache should load empty, got %d entries %d fingerprints", entries, fingerprints)
	}

	// The cache must still be writable afterwards.
	if err := c.Set("k", Entry{Content: "x", ChunksUsed: 1}); err != nil {
		t.Errorf("Set() after corrupt load error = %v", err)
	}
}

func TestForwardReadableWithoutFingerprints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary_cache.json")
	legacy := `{"entries":{"k":{"content":"old","chunks_used":1,"truncated":false,"updated_at":5}}}`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(path, 10)
	got, ok := c.Get("k")
	if !ok || got.Content != "old" {
		t.Errorf("legacy cache without hash_by_fingerprint should load: %+v, ok=%v", got, ok)
	}
}

func TestEvictionOldestFirst(t *testing.T) {
	c, _ := newTestCache(t, 3)

	clock := time.Unix(1000, 0)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, key := range []string{"a", "b", "c", "d"} {
		if err := c.Set(key, Entry{Content: key, ChunksUsed: 1}); err != nil {
			t.Fatal(err)
		}
	}

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("entry %q more recent than the evicted one is gone", key)
		}
	}
	entries, _ := c.Stats()
	if entries != 3 {
		t.Errorf("cache holds %d entries, want at most 3", entries)
	}
}

func TestFingerprintPruneBound(t *testing.T) {
	c, path := newTestCache(t, 2) // fingerprint ceiling = 8

	dir := filepath.Dir(path)
	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, "doc"+string(rune('a'+i))+".bin")
		if err := os.WriteFile(p, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		// Distinct sizes would all be 1 byte; distinct mtimes make the
		// fingerprints unique.
		mt := time.Unix(int64(2000+i), 0)
		if err := os.Chtimes(p, mt, mt); err != nil {
			t.Fatal(err)
		}
		if _, err := c.ResolveFileHash(p); err != nil {
			t.Fatalf("ResolveFileHash() error = %v", err)
		}
	}

	_, fingerprints := c.Stats()
	if fingerprints > 8 {
		t.Errorf("fingerprint map holds %d mappings, want at most 8", fingerprints)
	}
}

func TestResolveFileHashUsesFingerprintShortcut(t *testing.T) {
	c, _ := newTestCache(t, 10)

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(path, []byte("original content"), 0644); err != nil {
		t.Fatal(err)
	}
	mt := time.Unix(5000, 0)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}

	first, err := c.ResolveFileHash(path)
	if err != nil {
		t.Fatalf("ResolveFileHash() error = %v", err)
	}

	// Rewrite the file with different content of the same length and
	// restore the mtime: the fingerprint is unchanged, so the memoized
	// hash must be returned without rehashing.
	if err := os.WriteFile(path, []byte("replaced content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatal(err)
	}

	second, err := c.ResolveFileHash(path)
	if err != nil {
		t.Fatalf("ResolveFileHash() error = %v", err)
	}
	if second != first {
		t.Error("matching fingerprint should return the memoized hash")
	}

	// A changed mtime invalidates the shortcut and forces a real digest.
	mt2 := time.Unix(6000, 0)
	if err := os.Chtimes(path, mt2, mt2); err != nil {
		t.Fatal(err)
	}
	third, err := c.ResolveFileHash(path)
	if err != nil {
		t.Fatalf("ResolveFileHash() error = %v", err)
	}
	if third == first {
		t.Error("changed fingerprint should trigger a fresh content hash")
	}
}

func TestAtomicPersistShape(t *testing.T) {
	c, path := newTestCache(t, 10)
	if err := c.Set("k", Entry{Content: "x", ChunksUsed: 1, Truncated: true}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary sibling file should not remain after a write")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("cache file is not valid JSON: %v", err)
	}
	if _, ok := doc["entries"]; !ok {
		t.Error("cache file missing entries section")
	}
}

func TestBuildKeyDeterminism(t *testing.T) {
	base := KeyParams{
		DocHash:      "h1",
		Model:        "m",
		SystemPrompt: "p",
		MaxChars:     1000,
		ChunkChars:   500,
		Profile:      "paper",
	}

	if BuildKey(base) != BuildKey(base) {
		t.Error("identical params must produce identical keys")
	}

	mutations := []KeyParams{
		{DocHash: "h2", Model: "m", SystemPrompt: "p", MaxChars: 1000, ChunkChars: 500, Profile: "paper"},
		{DocHash: "h1", Model: "m2", SystemPrompt: "p", MaxChars: 1000, ChunkChars: 500, Profile: "paper"},
		{DocHash: "h1", Model: "m", SystemPrompt: "p!", MaxChars: 1000, ChunkChars: 500, Profile: "paper"},
		{DocHash: "h1", Model: "m", SystemPrompt: "p", MaxChars: 1001, ChunkChars: 500, Profile: "paper"},
		{DocHash: "h1", Model: "m", SystemPrompt: "p", MaxChars: 1000, ChunkChars: 501, Profile: "paper"},
		{DocHash: "h1", Model: "m", SystemPrompt: "p", MaxChars: 1000, ChunkChars: 500, Profile: "report"},
	}

	baseKey := BuildKey(base)
	seen := map[string]bool{baseKey: true}
	for i, m := range mutations {
		k := BuildKey(m)
		if seen[k] {
			t.Errorf("mutation %d did not change the cache key", i)
		}
		seen[k] = true
	}
}
