// Package fs provides the on-disk response cache: a content-addressed
// store for raw fetch bodies with TTL expiry and an LRU size budget.
package fs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tmustier/webtk"
)

// Ensure Cache implements webtk.Cache at compile time.
var _ webtk.Cache = (*Cache)(nil)

// Default cache settings.
const (
	DefaultTTL   = 7 * 24 * time.Hour
	DefaultMaxMB = 1024
)

// Hysteresis bounds for pruning: start evicting above budget*1.1, stop
// below budget*0.9, so back-to-back stores don't thrash the directory.
const (
	pruneHighWater = 1.1
	pruneLowWater  = 0.9
)

// Cache stores response bodies under <dir>/bodies/<fp[:2]>/<fp>.bin with a
// .json metadata sidecar. Writes go through a temp file and an atomic
// rename; concurrent readers of distinct fingerprints are safe, and
// colliding writes are idempotent (same fingerprint, same bytes).
type Cache struct {
	dir      string
	ttl      time.Duration
	maxBytes int64

	// ephemeral tracks temp bodies removed by Cleanup on process exit.
	ephemeral []string
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry time-to-live. Defaults to DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithMaxBytes sets the size budget in bytes. Defaults to DefaultMaxMB.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, opts ...Option) *Cache {
	c := &Cache{
		dir:      dir,
		ttl:      DefaultTTL,
		maxBytes: DefaultMaxMB << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) bodyPath(fingerprint string) string {
	return filepath.Join(c.dir, "bodies", fingerprint[:2], fingerprint+".bin")
}

func (c *Cache) metaPath(fingerprint string) string {
	return filepath.Join(c.dir, "bodies", fingerprint[:2], fingerprint+".json")
}

// Lookup returns the entry for the fingerprint, or nil on a miss. Expired
// entries are deleted and corrupt entries (missing body, unreadable
// sidecar) are dropped silently; both count as a miss.
func (c *Cache) Lookup(fingerprint string) (*webtk.CacheEntry, error) {
	if len(fingerprint) < 2 {
		return nil, webtk.Errorf(webtk.EINVALID, "cache fingerprint too short")
	}

	metaPath := c.metaPath(fingerprint)
	bodyPath := c.bodyPath(fingerprint)

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, nil
	}
	if _, err := os.Stat(bodyPath); err != nil {
		c.drop(fingerprint)
		return nil, nil
	}

	var meta webtk.CacheMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.drop(fingerprint)
		return nil, nil
	}

	if meta.StoredAt.IsZero() || time.Since(meta.StoredAt) > c.ttl {
		c.drop(fingerprint)
		return nil, nil
	}

	// Touch for LRU eviction ordering. Best effort.
	meta.LastAccessed = time.Now().UTC()
	if updated, err := json.Marshal(meta); err == nil {
		_ = writeFileAtomic(metaPath, updated)
	}

	return &webtk.CacheEntry{
		Fingerprint: fingerprint,
		BodyPath:    bodyPath,
		Metadata:    meta,
	}, nil
}

// Store persists the body and metadata, returning the body path. A write
// failure (e.g. disk full) returns an io_error; callers keep the in-memory
// body and degrade to a warning.
func (c *Cache) Store(fingerprint string, body []byte, meta webtk.CacheMetadata) (string, error) {
	if len(fingerprint) < 2 {
		return "", webtk.Errorf(webtk.EINVALID, "cache fingerprint too short")
	}

	bodyPath := c.bodyPath(fingerprint)
	if err := os.MkdirAll(filepath.Dir(bodyPath), 0o755); err != nil {
		return "", webtk.Errorf(webtk.EIO, "creating cache directory: %v", err)
	}

	now := time.Now().UTC()
	meta.StoredAt = now
	meta.LastAccessed = now
	meta.BodyBytes = int64(len(body))

	if err := writeFileAtomic(bodyPath, body); err != nil {
		return "", webtk.Errorf(webtk.EIO, "writing cache body: %v", err)
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return "", webtk.Errorf(webtk.EINTERNAL, "encoding cache metadata: %v", err)
	}
	if err := writeFileAtomic(c.metaPath(fingerprint), encoded); err != nil {
		return "", webtk.Errorf(webtk.EIO, "writing cache metadata: %v", err)
	}

	return bodyPath, nil
}

// StoreEphemeral writes the body to a temp path removed by Cleanup.
// Used for --no-cache runs and do-not-persist renders.
func (c *Cache) StoreEphemeral(fingerprint string, body []byte) (string, error) {
	tmpDir := filepath.Join(c.dir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o700); err != nil {
		return "", webtk.Errorf(webtk.EIO, "creating temp directory: %v", err)
	}
	f, err := os.CreateTemp(tmpDir, fingerprint[:min(len(fingerprint), 8)]+"-*.bin")
	if err != nil {
		return "", webtk.Errorf(webtk.EIO, "creating temp body: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(body); err != nil {
		return "", webtk.Errorf(webtk.EIO, "writing temp body: %v", err)
	}
	c.ephemeral = append(c.ephemeral, f.Name())
	return f.Name(), nil
}

// Cleanup removes ephemeral bodies written during this process, along
// with the temp area do-not-persist artifacts land in.
func (c *Cache) Cleanup() {
	for _, path := range c.ephemeral {
		_ = os.Remove(path)
	}
	c.ephemeral = nil
	_ = os.RemoveAll(filepath.Join(c.dir, "tmp"))
}

type pruneEntry struct {
	fingerprint  string
	size         int64
	lastAccessed time.Time
}

// Prune evicts least-recently-accessed entries when the store exceeds its
// budget by the high-water factor, stopping at the low-water mark. Expired
// and corrupt entries are removed regardless of the budget.
func (c *Cache) Prune() (int64, error) {
	bodiesDir := filepath.Join(c.dir, "bodies")
	var entries []pruneEntry
	var total int64
	var freed int64

	shards, err := os.ReadDir(bodiesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, webtk.Errorf(webtk.EIO, "reading cache directory: %v", err)
	}

	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(bodiesDir, shard.Name()))
		if err != nil {
			continue
		}
		for _, file := range files {
			name := file.Name()
			if filepath.Ext(name) != ".json" {
				continue
			}
			fingerprint := name[:len(name)-len(".json")]
			entry, ok := c.pruneCandidate(fingerprint)
			if !ok {
				freed += c.drop(fingerprint)
				continue
			}
			total += entry.size
			entries = append(entries, entry)
		}
	}

	if float64(total) <= float64(c.maxBytes)*pruneHighWater {
		return freed, nil
	}

	// Oldest access first.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastAccessed.Before(entries[j].lastAccessed)
	})

	low := int64(float64(c.maxBytes) * pruneLowWater)
	for _, entry := range entries {
		if total <= low {
			break
		}
		freed += c.drop(entry.fingerprint)
		total -= entry.size
	}
	return freed, nil
}

// pruneCandidate loads one entry's eviction metadata. The second return is
// false for corrupt or expired entries, which the caller removes.
func (c *Cache) pruneCandidate(fingerprint string) (pruneEntry, bool) {
	raw, err := os.ReadFile(c.metaPath(fingerprint))
	if err != nil {
		return pruneEntry{}, false
	}
	var meta webtk.CacheMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return pruneEntry{}, false
	}
	if meta.StoredAt.IsZero() || time.Since(meta.StoredAt) > c.ttl {
		return pruneEntry{}, false
	}

	info, err := os.Stat(c.bodyPath(fingerprint))
	if err != nil {
		return pruneEntry{}, false
	}

	last := meta.LastAccessed
	if last.IsZero() {
		// Fall back to filesystem mtime when the sidecar predates
		// access tracking.
		last = info.ModTime()
	}

	return pruneEntry{
		fingerprint:  fingerprint,
		size:         info.Size() + int64(len(raw)),
		lastAccessed: last,
	}, true
}

// drop removes an entry's body and sidecar, returning bytes freed.
func (c *Cache) drop(fingerprint string) int64 {
	var freed int64
	for _, path := range []string{c.bodyPath(fingerprint), c.metaPath(fingerprint)} {
		if info, err := os.Stat(path); err == nil {
			freed += info.Size()
		}
		_ = os.Remove(path)
	}
	return freed
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
