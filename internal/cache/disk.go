package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FilePrefix is prepended to every cache file name.
const FilePrefix = "web_cache_"

// DiskStore keeps one JSON file per key in a directory.
type DiskStore struct {
	dir    string
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// DiskOption configures a DiskStore.
type DiskOption func(*DiskStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) DiskOption {
	return func(s *DiskStore) { s.now = now }
}

// WithLogger sets the logger used for read and write failures.
func WithLogger(logger *zap.Logger) DiskOption {
	return func(s *DiskStore) { s.logger = logger }
}

// NewDiskStore creates a store rooted at dir. The directory is created lazily
// on the first Put. A non-positive ttl falls back to DefaultTTL.
func NewDiskStore(dir string, ttl time.Duration, opts ...DiskOption) *DiskStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &DiskStore{
		dir:    dir,
		ttl:    ttl,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file backing key.
func (s *DiskStore) Path(key string) string {
	return filepath.Join(s.dir, FilePrefix+key+".json")
}

// Get implements Store. Expired files are left in place.
func (s *DiskStore) Get(_ context.Context, key string) (json.RawMessage, bool) {
	path := s.Path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to load cache", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("Failed to load cache", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	if entry.Timestamp.IsZero() || len(entry.Data) == 0 {
		s.logger.Warn("Ignoring incomplete cache entry", zap.String("path", path))
		return nil, false
	}
	if expired(entry.Timestamp, s.now(), s.ttl) {
		s.logger.Debug("Cache entry expired", zap.String("path", path), zap.Time("timestamp", entry.Timestamp))
		return nil, false
	}
	return entry.Data, true
}

// Put implements Store. The entry is written to a temporary file and renamed
// over the target, so concurrent writers to one key are last-write-wins.
func (s *DiskStore) Put(_ context.Context, key string, payload any) error {
	data, err := newEntry(payload, s.now())
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, FilePrefix+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Clear removes every cache file in the directory and returns how many were
// deleted. A missing directory is not an error.
func (s *DiskStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), FilePrefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
