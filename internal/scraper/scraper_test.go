package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/cache"
)

const admissionsHTML = `
<html><body>
  <div class="content">
    <h1>Admissions</h1>
    <p>Apply   online.</p>
  </div>
  <ul class="requirements"><li>Transcript</li><li>Essay</li></ul>
  <ul class="requirements-list"><li>Fee</li></ul>
</body></html>`

const tuitionHTML = `<html><body><p>Nothing here</p></body></html>`

type fakeRenderer struct {
	html  string
	err   error
	calls int
}

func (f *fakeRenderer) Render(context.Context, string) (string, error) {
	f.calls++
	return f.html, f.err
}

func newSite(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admissions", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "TestBot/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(admissionsHTML))
	})
	mux.HandleFunc("/programs", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/tuition", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(tuitionHTML))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func newScraper(t *testing.T, baseURL string, store cache.Store, opts ...Option) *Scraper {
	t.Helper()
	return New(Config{
		Enabled:   true,
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		UserAgent: "TestBot/1.0",
	}, store, zap.NewNop(), opts...)
}

func TestScrapeAll_FetchesAndRecordsFailures(t *testing.T) {
	server, hits := newSite(t)
	store := cache.NewDiskStore(t.TempDir(), time.Hour)
	s := newScraper(t, server.URL, store)

	result := s.ScrapeAll(context.Background(), true)

	assert.Equal(t, int32(3), hits.Load())
	assert.False(t, result.AnyFromCache)
	assert.Equal(t, []string{"/admissions", "/tuition"}, result.Order)

	admissions := result.Pages["/admissions"]
	assert.Equal(t, server.URL+"/admissions", admissions.URL)
	assert.Equal(t, "Admissions Apply online. TranscriptEssay Fee", admissions.Content)
	assert.Equal(t, []string{"main_content", "requirements"}, admissions.SelectorsFound)

	tuition := result.Pages["/tuition"]
	assert.Empty(t, tuition.Content)
	assert.Empty(t, tuition.SelectorsFound)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to scrape "+server.URL+"/programs")
	assert.Contains(t, result.Errors[0], "404")
}

func TestScrapeAll_UsesCache(t *testing.T) {
	server, hits := newSite(t)
	store := cache.NewDiskStore(t.TempDir(), time.Hour)
	s := newScraper(t, server.URL, store)

	first := s.ScrapeAll(context.Background(), true)
	require.Equal(t, int32(3), hits.Load())

	second := s.ScrapeAll(context.Background(), true)
	assert.True(t, second.AnyFromCache)
	// Only the failed target goes back to the network.
	assert.Equal(t, int32(4), hits.Load())
	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Order, second.Order)
}

func TestScrapeAll_BypassCache(t *testing.T) {
	server, hits := newSite(t)
	store := cache.NewDiskStore(t.TempDir(), time.Hour)
	s := newScraper(t, server.URL, store)

	s.ScrapeAll(context.Background(), true)
	result := s.ScrapeAll(context.Background(), false)

	assert.False(t, result.AnyFromCache)
	assert.Equal(t, int32(6), hits.Load())
}

func TestScrapeAll_ExpiredCacheRefetches(t *testing.T) {
	server, hits := newSite(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewDiskStore(t.TempDir(), time.Hour, cache.WithClock(func() time.Time { return now }))
	s := newScraper(t, server.URL, store)

	s.ScrapeAll(context.Background(), true)
	now = now.Add(time.Hour + time.Second)
	result := s.ScrapeAll(context.Background(), true)

	assert.False(t, result.AnyFromCache)
	assert.Equal(t, int32(6), hits.Load())
}

func TestScrapeAll_Disabled(t *testing.T) {
	renderer := &fakeRenderer{html: admissionsHTML}
	s := New(Config{Enabled: false, BaseURL: "http://example.invalid"}, nil, nil, WithRenderer(renderer))

	result := s.ScrapeAll(context.Background(), true)

	assert.Empty(t, result.Pages)
	assert.Empty(t, result.Errors)
	assert.False(t, result.AnyFromCache)
	assert.Zero(t, renderer.calls)
	assert.False(t, s.Enabled())
}

func TestScrapeAll_NilStore(t *testing.T) {
	renderer := &fakeRenderer{html: admissionsHTML}
	s := New(Config{
		Enabled: true,
		BaseURL: "http://example.invalid",
		Targets: DefaultTargets()[:1],
	}, nil, zap.NewNop(), WithRenderer(renderer))

	result := s.ScrapeAll(context.Background(), true)
	result = s.ScrapeAll(context.Background(), true)

	assert.Equal(t, 2, renderer.calls)
	assert.Equal(t, 1, result.Len())
}

func TestScrapeAll_BrowserTargets(t *testing.T) {
	plain := &fakeRenderer{html: tuitionHTML}
	browser := &fakeRenderer{html: admissionsHTML}
	targets := []Target{
		{Path: "/static", Selectors: []Selector{{Name: "p", Query: "p"}}},
		{Path: "/app", Render: true, Selectors: []Selector{{Name: "main_content", Query: "div.content"}}},
	}
	s := New(Config{Enabled: true, BaseURL: "http://u.edu", Targets: targets}, nil, zap.NewNop(),
		WithRenderer(plain), WithBrowser(browser))

	result := s.ScrapeAll(context.Background(), false)

	assert.Equal(t, 1, plain.calls)
	assert.Equal(t, 1, browser.calls)
	assert.Equal(t, "Nothing here", result.Pages["/static"].Content)
	assert.Equal(t, "Admissions Apply online.", result.Pages["/app"].Content)
}

func TestScrapeAll_RendererError(t *testing.T) {
	renderer := &fakeRenderer{err: errors.New("connection refused")}
	s := New(Config{Enabled: true, BaseURL: "http://u.edu"}, nil, zap.NewNop(), WithRenderer(renderer))

	result := s.ScrapeAll(context.Background(), false)

	assert.Empty(t, result.Pages)
	assert.Equal(t, []string{
		"Failed to scrape http://u.edu/admissions: connection refused",
		"Failed to scrape http://u.edu/programs: connection refused",
		"Failed to scrape http://u.edu/tuition: connection refused",
	}, result.Errors)
}

func TestScrapeAll_Cancelled(t *testing.T) {
	renderer := &fakeRenderer{html: admissionsHTML}
	s := New(Config{Enabled: true, BaseURL: "http://u.edu"}, nil, zap.NewNop(), WithRenderer(renderer))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := s.ScrapeAll(ctx, false)

	assert.Zero(t, renderer.calls)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cancelled")
}

func TestParsePage_SelectorOrder(t *testing.T) {
	html := `<div class="b">second</div><div class="a">first</div>`
	page, err := ParsePage("http://u.edu/x", html, []Selector{
		{Name: "a", Query: "div.a"},
		{Name: "missing", Query: "table.none"},
		{Name: "b", Query: "div.b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first second", page.Content)
	assert.Equal(t, []string{"a", "b"}, page.SelectorsFound)
}

func TestParsePage_InvalidSelectorMatchesNothing(t *testing.T) {
	page, err := ParsePage("http://u.edu/x", "<p>hi</p>", []Selector{{Name: "bad", Query: "p[["}})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Empty(t, page.SelectorsFound)
}

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets()
	require.Len(t, targets, 3)
	assert.Equal(t, "/admissions", targets[0].Path)
	assert.Equal(t, "main_content", targets[0].Selectors[0].Name)
	assert.Equal(t, "/programs", targets[1].Path)
	assert.Equal(t, "/tuition", targets[2].Path)
}
