// Package cache persists summarization results keyed by document
// content and summarization parameters.
//
// The backing store is a single JSON document with two mappings: cache
// key → entry, and filesystem fingerprint → content hash. The second
// mapping lets repeated runs skip rehashing files that have not changed
// on disk.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Maxwell0339/paper-cli/internal/util"
)

// DefaultMaxEntries bounds the number of summary entries kept on disk.
const DefaultMaxEntries = 512

// fingerprintFactor scales the fingerprint-map ceiling relative to the
// entry ceiling.
const fingerprintFactor = 4

// Entry is one cached summarization result.
type Entry struct {
	Content    string `json:"content"`
	ChunksUsed int    `json:"chunks_used"`
	Truncated  bool   `json:"truncated"`
	UpdatedAt  int64  `json:"updated_at"`
}

// fileFormat is the on-disk JSON shape. hash_by_fingerprint may be
// absent in caches written by older versions and loads as empty.
type fileFormat struct {
	Entries           map[string]Entry  `json:"entries"`
	HashByFingerprint map[string]string `json:"hash_by_fingerprint,omitempty"`
}

// Cache is a content-addressed summary cache safe for concurrent use.
type Cache struct {
	path       string
	maxEntries int

	mu   sync.Mutex
	data fileFormat

	now func() time.Time
}

// New opens the cache at path, loading any existing content.
// Loading is best-effort: a missing or corrupt file yields an empty
// cache and never an error. maxEntries <= 0 selects DefaultMaxEntries.
func New(path string, maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		path:       path,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	c.load()
	return c
}

// load reads the backing file into memory. Corruption degrades to an
// empty cache instead of failing the run.
func (c *Cache) load() {
	c.data = fileFormat{
		Entries:           make(map[string]Entry),
		HashByFingerprint: make(map[string]string),
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return
	}

	var loaded fileFormat
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return
	}
	if loaded.Entries != nil {
		c.data.Entries = loaded.Entries
	}
	if loaded.HashByFingerprint != nil {
		c.data.HashByFingerprint = loaded.HashByFingerprint
	}
}

// persist writes the cache atomically: the content goes to a temporary
// sibling file first and is renamed over the real path, so a crash
// mid-write never corrupts an existing cache file.
func (c *Cache) persist() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}

	encoded, err := json.Marshal(c.data)
	if err != nil {
		return err
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// Get returns the entry for key, if present.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data.Entries[key]
	return entry, ok
}

// Set stores an entry under key, stamps its update time, prunes to the
// configured bounds, and persists the cache.
func (c *Cache) Set(key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = c.now().UnixNano()
	c.data.Entries[key] = entry
	c.prune()
	return c.persist()
}

// ResolveFileHash returns the content hash of the file at path. The
// current size+mtime fingerprint is checked first; only on a miss is
// the file streamed through SHA-256, and the mapping is remembered for
// future runs.
func (c *Cache) ResolveFileHash(path string) (string, error) {
	fingerprint, err := util.FileFingerprint(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if hash, ok := c.data.HashByFingerprint[fingerprint]; ok {
		c.mu.Unlock()
		return hash, nil
	}
	c.mu.Unlock()

	// Hash outside the lock; digesting a large file must not stall
	// concurrent cache lookups.
	hash, err := util.FileSHA256(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.HashByFingerprint[fingerprint] = hash
	c.prune()
	if err := c.persist(); err != nil {
		return "", err
	}
	return hash, nil
}

// Stats reports the current entry and fingerprint counts.
func (c *Cache) Stats() (entries, fingerprints int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data.Entries), len(c.data.HashByFingerprint)
}

// prune enforces the size bounds: entries beyond maxEntries are evicted
// oldest-first by update time; fingerprints beyond 4×maxEntries are
// evicted by key order, since fingerprints carry no timestamp.
// Callers must hold the lock.
func (c *Cache) prune() {
	if excess := len(c.data.Entries) - c.maxEntries; excess > 0 {
		keys := make([]string, 0, len(c.data.Entries))
		for k := range c.data.Entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return c.data.Entries[keys[i]].UpdatedAt < c.data.Entries[keys[j]].UpdatedAt
		})
		for _, k := range keys[:excess] {
			delete(c.data.Entries, k)
		}
	}

	maxFingerprints := c.maxEntries * fingerprintFactor
	if excess := len(c.data.HashByFingerprint) - maxFingerprints; excess > 0 {
		keys := make([]string, 0, len(c.data.HashByFingerprint))
		for k := range c.data.HashByFingerprint {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys[:excess] {
			delete(c.data.HashByFingerprint, k)
		}
	}
}
