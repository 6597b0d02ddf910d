package fs_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmustier/webtk"
	"github.com/tmustier/webtk/fs"
)

func testFingerprint(url string) string {
	return webtk.Fingerprint("GET", url, nil)
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache := fs.NewCache(t.TempDir())
	fp := testFingerprint("https://example.com/page")
	body := []byte("<html>hello</html>")
	meta := webtk.CacheMetadata{
		Status:      200,
		FinalURL:    "https://example.com/page",
		ContentType: "text/html",
	}

	path, err := cache.Store(fp, body, meta)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, fp+".bin"))

	entry, err := cache.Lookup(fp)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, fp, entry.Fingerprint)
	assert.Equal(t, 200, entry.Metadata.Status)
	assert.Equal(t, "https://example.com/page", entry.Metadata.FinalURL)
	assert.Equal(t, int64(len(body)), entry.Metadata.BodyBytes)

	stored, err := os.ReadFile(entry.BodyPath)
	require.NoError(t, err)
	assert.Equal(t, body, stored)
}

func TestCacheMisses(t *testing.T) {
	t.Parallel()

	t.Run("unknown fingerprint is a miss", func(t *testing.T) {
		t.Parallel()
		cache := fs.NewCache(t.TempDir())
		entry, err := cache.Lookup(testFingerprint("https://example.com/absent"))
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("expired entry is a miss and is dropped", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cache := fs.NewCache(dir, fs.WithTTL(time.Nanosecond))
		fp := testFingerprint("https://example.com/stale")
		_, err := cache.Store(fp, []byte("old"), webtk.CacheMetadata{Status: 200})
		require.NoError(t, err)

		time.Sleep(time.Millisecond)
		entry, err := cache.Lookup(fp)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("corrupt sidecar is dropped silently", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cache := fs.NewCache(dir)
		fp := testFingerprint("https://example.com/corrupt")
		_, err := cache.Store(fp, []byte("body"), webtk.CacheMetadata{Status: 200})
		require.NoError(t, err)

		sidecar := filepath.Join(dir, "bodies", fp[:2], fp+".json")
		require.NoError(t, os.WriteFile(sidecar, []byte("{not json"), 0o644))

		entry, err := cache.Lookup(fp)
		require.NoError(t, err)
		assert.Nil(t, entry)
		_, statErr := os.Stat(sidecar)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("missing body file is a miss", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		cache := fs.NewCache(dir)
		fp := testFingerprint("https://example.com/nobody")
		_, err := cache.Store(fp, []byte("body"), webtk.CacheMetadata{Status: 200})
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(dir, "bodies", fp[:2], fp+".bin")))

		entry, err := cache.Lookup(fp)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestCacheLookupTouchesLastAccessed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := fs.NewCache(dir)
	fp := testFingerprint("https://example.com/touch")
	_, err := cache.Store(fp, []byte("body"), webtk.CacheMetadata{Status: 200})
	require.NoError(t, err)

	first, err := cache.Lookup(fp)
	require.NoError(t, err)
	require.NotNil(t, first)

	raw, err := os.ReadFile(filepath.Join(dir, "bodies", fp[:2], fp+".json"))
	require.NoError(t, err)
	var meta webtk.CacheMetadata
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.False(t, meta.LastAccessed.Before(meta.StoredAt))
}

func TestCachePrune(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently accessed entries", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		// Budget small enough that three 1 KB bodies exceed high water.
		cache := fs.NewCache(dir, fs.WithMaxBytes(2048))

		body := make([]byte, 1024)
		fps := []string{
			testFingerprint("https://example.com/a"),
			testFingerprint("https://example.com/b"),
			testFingerprint("https://example.com/c"),
		}
		for _, fp := range fps {
			_, err := cache.Store(fp, body, webtk.CacheMetadata{Status: 200})
			require.NoError(t, err)
			time.Sleep(5 * time.Millisecond)
		}

		// Touch the first entry so the middle one is the LRU victim.
		_, err := cache.Lookup(fps[0])
		require.NoError(t, err)

		freed, err := cache.Prune()
		require.NoError(t, err)
		assert.Greater(t, freed, int64(0))

		survivor, err := cache.Lookup(fps[0])
		require.NoError(t, err)
		assert.NotNil(t, survivor)
	})

	t.Run("under budget nothing is evicted", func(t *testing.T) {
		t.Parallel()
		cache := fs.NewCache(t.TempDir(), fs.WithMaxBytes(1<<20))
		fp := testFingerprint("https://example.com/keep")
		_, err := cache.Store(fp, []byte("tiny"), webtk.CacheMetadata{Status: 200})
		require.NoError(t, err)

		freed, err := cache.Prune()
		require.NoError(t, err)
		assert.Zero(t, freed)

		entry, err := cache.Lookup(fp)
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})

	t.Run("empty cache prunes cleanly", func(t *testing.T) {
		t.Parallel()
		cache := fs.NewCache(t.TempDir())
		freed, err := cache.Prune()
		require.NoError(t, err)
		assert.Zero(t, freed)
	})
}

func TestCacheEphemeral(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := fs.NewCache(dir)
	fp := testFingerprint("https://example.com/ephemeral")

	path, err := cache.StoreEphemeral(fp, []byte("secret render"))
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Join(dir, "tmp"))

	// Ephemeral bodies never become cache entries.
	entry, err := cache.Lookup(fp)
	require.NoError(t, err)
	assert.Nil(t, entry)

	cache.Cleanup()
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
