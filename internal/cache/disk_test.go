package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	URL            string   `json:"url"`
	Content        string   `json:"content"`
	SelectorsFound []string `json:"selectors_found"`
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestKey(t *testing.T) {
	a := Key("https://university-website.edu/admissions")
	b := Key("https://university-website.edu/admissions")
	c := Key("https://university-website.edu/programs")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestDiskStore_PutThenGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store := NewDiskStore(dir, time.Hour)
	ctx := context.Background()

	want := page{URL: "https://u.edu/admissions", Content: "Apply by Jan 15", SelectorsFound: []string{"main_content"}}
	require.NoError(t, store.Put(ctx, "k1", want))

	raw, ok := store.Get(ctx, "k1")
	require.True(t, ok)

	var got page
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, want, got)
}

func TestDiskStore_ExpiredEntryIsAbsentButKept(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewDiskStore(t.TempDir(), time.Hour, WithClock(clock.now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", page{Content: "x"}))

	clock.t = clock.t.Add(time.Hour)
	_, ok := store.Get(ctx, "k")
	assert.True(t, ok, "entry exactly at TTL is still valid")

	clock.t = clock.t.Add(time.Second)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok)

	_, err := os.Stat(store.Path("k"))
	assert.NoError(t, err, "expired entries are not deleted")
}

func TestDiskStore_Missing(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	_, ok := store.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestDiskStore_MalformedEntries(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, time.Hour)

	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{"},
		{"no timestamp", `{"data": {"content": "x"}}`},
		{"no data", `{"timestamp": "2025-01-01T00:00:00Z"}`},
		{"bad timestamp", `{"timestamp": "yesterday", "data": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(store.Path(tt.name), []byte(tt.content), 0644))
			_, ok := store.Get(context.Background(), tt.name)
			assert.False(t, ok)
		})
	}
}

func TestDiskStore_PutOverwrites(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", page{Content: "old"}))
	require.NoError(t, store.Put(ctx, "k", page{Content: "new"}))

	raw, ok := store.Get(ctx, "k")
	require.True(t, ok)
	var got page
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "new", got.Content)

	entries, err := os.ReadDir(filepath.Dir(store.Path("k")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDiskStore_PutUnencodable(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)
	err := store.Put(context.Background(), "k", make(chan int))
	assert.Error(t, err)
}

func TestDiskStore_PutUnwritableDir(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	store := NewDiskStore(filepath.Join(blocker, "cache"), time.Hour)
	err := store.Put(context.Background(), "k", page{})
	assert.Error(t, err)
}

func TestDiskStore_Clear(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", page{}))
	require.NoError(t, store.Put(ctx, "b", page{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0644))

	n, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err)

	missing := NewDiskStore(filepath.Join(dir, "absent"), time.Hour)
	n, err = missing.Clear()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewDiskStore_DefaultTTL(t *testing.T) {
	store := NewDiskStore(t.TempDir(), 0)
	assert.Equal(t, DefaultTTL, store.ttl)
}
