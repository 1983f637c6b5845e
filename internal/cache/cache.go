// Package cache provides key to JSON stores with age-based expiry, used to
// keep scraped pages between runs.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/zeebo/xxh3"
)

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = time.Hour

// Store is a key to JSON payload cache. Get never returns an error: missing,
// unreadable, malformed and expired entries all read as absent.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool)
	Put(ctx context.Context, key string, payload any) error
}

// Entry is the stored envelope. Entries are replaced, never mutated.
type Entry struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Key derives a stable cache key from a semantic identifier such as a URL.
func Key(identifier string) string {
	sum := xxh3.HashString128(identifier).Bytes()
	return hex.EncodeToString(sum[:])
}

// expired reports whether an entry stamped at ts is older than ttl at now.
func expired(ts, now time.Time, ttl time.Duration) bool {
	return now.Sub(ts) > ttl
}

func newEntry(payload any, now time.Time) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(Entry{Timestamp: now, Data: data}, "", "  ")
}
