package webtk

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// CacheMetadata is the JSON sidecar stored next to a cached body.
type CacheMetadata struct {
	Status       int               `json:"status"`
	FinalURL     string            `json:"final_url"`
	Headers      map[string]string `json:"headers,omitempty"`
	ContentType  string            `json:"content_type,omitempty"`
	BodyBytes    int64             `json:"body_bytes"`
	Truncated    bool              `json:"truncated,omitempty"`
	StoredAt     time.Time         `json:"stored_at"`
	LastAccessed time.Time         `json:"last_accessed"`
}

// CacheEntry is a successful cache lookup.
type CacheEntry struct {
	Fingerprint string
	BodyPath    string
	Metadata    CacheMetadata
}

// Cache is a content-addressed store for raw fetch responses.
type Cache interface {
	// Lookup returns the entry for the fingerprint, or nil on a miss.
	// Expired and corrupt entries count as misses.
	Lookup(fingerprint string) (*CacheEntry, error)

	// Store persists the body and metadata, returning the body path.
	Store(fingerprint string, body []byte, meta CacheMetadata) (string, error)

	// StoreEphemeral writes the body to a temp path that is removed on
	// process exit. Used for no-cache and do-not-persist responses.
	StoreEphemeral(fingerprint string, body []byte) (string, error)

	// Prune evicts least-recently-accessed entries until the store is
	// under its size budget, returning bytes freed.
	Prune() (int64, error)
}

// FingerprintHeaders is the request-header subset participating in the cache
// fingerprint because it alters content negotiation.
var FingerprintHeaders = []string{"accept", "accept-language", "user-agent"}

// Fingerprint derives the cache key from the request parameters. The URL is
// normalized first (lowercased scheme and host, sorted query keys, fragment
// stripped) so equivalent requests share an entry.
func Fingerprint(method, url string, headers map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(NormalizeURL(url))
	b.WriteByte('\n')

	keys := make([]string, 0, len(headers))
	lowered := make(map[string]string, len(headers))
	for k, v := range headers {
		lowered[strings.ToLower(k)] = v
	}
	for _, k := range FingerprintHeaders {
		if v, ok := lowered[k]; ok {
			keys = append(keys, k+":"+v)
		}
	}
	sort.Strings(keys)
	b.WriteString(strings.Join(keys, "\n"))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
