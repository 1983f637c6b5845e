// Package scraper pulls admissions text from the university website. Each
// configured target is fetched once, reduced to the text under its selectors
// and kept in a cache.Store between runs.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/cache"
	"github.com/jonathan/admissions-assistant/internal/extract"
	"github.com/jonathan/admissions-assistant/internal/fetch"
)

// Page is the text scraped from one target. It is also the cached payload.
type Page struct {
	URL            string   `json:"url"`
	Content        string   `json:"content"`
	SelectorsFound []string `json:"selectors_found"`
}

// Result collects the pages of one scrape. Pages is keyed by target path and
// Order lists those paths in target order.
type Result struct {
	Pages        map[string]Page
	Order        []string
	Errors       []string
	AnyFromCache bool
}

// Len returns the number of pages.
func (r Result) Len() int {
	return len(r.Order)
}

// Config controls what is scraped and how.
type Config struct {
	Enabled   bool
	BaseURL   string
	Targets   []Target
	Timeout   time.Duration
	UserAgent string
}

// Scraper fetches targets and caches the extracted pages.
type Scraper struct {
	cfg     Config
	store   cache.Store
	plain   fetch.Renderer
	browser fetch.Renderer
	logger  *zap.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithRenderer replaces the plain HTTP renderer.
func WithRenderer(r fetch.Renderer) Option {
	return func(s *Scraper) { s.plain = r }
}

// WithBrowser sets the renderer used for targets marked Render.
func WithBrowser(r fetch.Renderer) Option {
	return func(s *Scraper) { s.browser = r }
}

// New creates a Scraper. A nil store disables caching.
func New(cfg Config, store cache.Store, logger *zap.Logger, opts ...Option) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = fetch.DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetch.DefaultUserAgent
	}
	if cfg.Targets == nil {
		cfg.Targets = DefaultTargets()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scraper{
		cfg:    cfg,
		store:  store,
		logger: logger,
		plain: fetch.HTTPRenderer{Options: &fetch.Options{
			Timeout:   cfg.Timeout,
			UserAgent: cfg.UserAgent,
		}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether scraping is switched on.
func (s *Scraper) Enabled() bool {
	return s.cfg.Enabled
}

// ScrapeAll visits every target in order. Failures are recorded per target
// and never stop the batch. When useCache is set, fresh cached pages are used
// instead of the network.
func (s *Scraper) ScrapeAll(ctx context.Context, useCache bool) Result {
	result := Result{Pages: map[string]Page{}}
	if !s.cfg.Enabled {
		s.logger.Info("web scraping is disabled")
		return result
	}

	for _, target := range s.cfg.Targets {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Scrape cancelled: %v", err))
			break
		}

		url := s.cfg.BaseURL + target.Path
		key := cache.Key(url)

		if useCache && s.store != nil {
			if page, ok := s.cached(ctx, key); ok {
				result.add(target.Path, page)
				result.AnyFromCache = true
				s.logger.Info("loaded cached page", zap.String("url", url))
				continue
			}
		}

		html, err := s.renderer(target).Render(ctx, url)
		if err != nil {
			msg := fmt.Sprintf("Failed to scrape %s: %v", url, err)
			s.logger.Warn(msg)
			result.Errors = append(result.Errors, msg)
			continue
		}

		page, err := ParsePage(url, html, target.Selectors)
		if err != nil {
			msg := fmt.Sprintf("Error parsing %s: %v", url, err)
			s.logger.Error(msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.add(target.Path, page)

		if s.store != nil {
			if err := s.store.Put(ctx, key, page); err != nil {
				s.logger.Warn("failed to cache page", zap.String("url", url), zap.Error(err))
			}
		}
		s.logger.Info("scraped page",
			zap.String("url", url),
			zap.Int("chars", len(page.Content)),
			zap.Strings("selectors_found", page.SelectorsFound))
	}

	return result
}

func (s *Scraper) renderer(t Target) fetch.Renderer {
	if t.Render && s.browser != nil {
		return s.browser
	}
	return s.plain
}

func (s *Scraper) cached(ctx context.Context, key string) (Page, bool) {
	raw, ok := s.store.Get(ctx, key)
	if !ok {
		return Page{}, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		s.logger.Debug("ignoring undecodable cached page", zap.String("key", key), zap.Error(err))
		return Page{}, false
	}
	return page, true
}

func (r *Result) add(path string, page Page) {
	if _, exists := r.Pages[path]; !exists {
		r.Order = append(r.Order, path)
	}
	r.Pages[path] = page
}

// ParsePage extracts the text under each selector of html. Selectors that
// match nothing contribute nothing; the rest are joined in declaration order.
func ParsePage(url, html string, selectors []Selector) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, &ParseError{URL: url, Message: "failed to parse HTML", Cause: err}
	}

	var fragments []string
	found := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		matched := doc.Find(sel.Query)
		if matched.Length() == 0 {
			continue
		}
		parts := make([]string, 0, matched.Length())
		matched.Each(func(_ int, el *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(el.Text()))
		})
		fragments = append(fragments, strings.Join(parts, " "))
		found = append(found, sel.Name)
	}

	return Page{
		URL:            url,
		Content:        extract.Sanitize(strings.Join(fragments, " ")),
		SelectorsFound: found,
	}, nil
}

// ParseError is returned when a response cannot be parsed as HTML.
type ParseError struct {
	URL     string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
