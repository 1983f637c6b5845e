// Package assembler builds the merged context from the local corpus and the
// website, and holds the result for the life of the process until Reload.
package assembler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/admissions-assistant/internal/corpus"
	"github.com/jonathan/admissions-assistant/internal/logging"
	"github.com/jonathan/admissions-assistant/internal/scraper"
)

// ErrNoContext is returned when neither local files nor scraped pages
// produced any content.
var ErrNoContext = errors.New("no context available")

// LocalLoader loads the local corpus.
type LocalLoader interface {
	LoadLocal(dir string) corpus.Local
}

// WebScraper scrapes the configured website.
type WebScraper interface {
	Enabled() bool
	ScrapeAll(ctx context.Context, useCache bool) scraper.Result
}

// Assembly is one build of the context.
type Assembly struct {
	Context string
	Errors  []string
	Local   corpus.Local
	Web     scraper.Result
}

// Empty reports whether the build found no documents and no pages.
func (a Assembly) Empty() bool {
	return a.Local.Len() == 0 && a.Web.Len() == 0
}

// Assembler owns the process-wide context. It is safe for concurrent use.
type Assembler struct {
	loader  LocalLoader
	web     WebScraper
	dataDir string
	logger  *zap.Logger

	mu         sync.RWMutex
	context    string
	generation uint64
	hooks      []func()

	group singleflight.Group
}

// New creates an Assembler. web may be nil when scraping is not wired.
func New(loader LocalLoader, web WebScraper, dataDir string, logger *zap.Logger) *Assembler {
	return &Assembler{loader: loader, web: web, dataDir: dataDir, logger: logging.OrNop(logger)}
}

// OnReload registers fn to run whenever Reload clears the context.
func (a *Assembler) OnReload(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Assemble loads the local corpus, scrapes the website when useScraping is
// set and scraping is enabled, and merges both. It does not touch the held
// context.
func (a *Assembler) Assemble(ctx context.Context, useScraping, useCache bool) Assembly {
	start := time.Now()
	out := Assembly{}

	out.Local = a.loader.LoadLocal(a.dataDir)
	out.Errors = append(out.Errors, out.Local.Errors...)

	if useScraping && a.web != nil && a.web.Enabled() {
		out.Web = a.web.ScrapeAll(ctx, useCache)
		out.Errors = append(out.Errors, out.Web.Errors...)
	} else {
		out.Web = scraper.Result{Pages: map[string]scraper.Page{}}
	}

	out.Context = corpus.Merge(out.Local, out.Web)
	a.logger.Info("assembled context",
		zap.Int("chars", len(out.Context)),
		zap.Int("documents", out.Local.Len()),
		zap.Int("pages", out.Web.Len()),
		zap.Int("errors", len(out.Errors)),
		zap.Duration("elapsed", time.Since(start)))
	return out
}

// GetContext returns the held context, building it on first use. Concurrent
// callers share a single build. A build that finds nothing returns
// ErrNoContext and is not held. The build ignores cancellation of ctx so a
// dropped request cannot leave a partial context held; fetch timeouts bound it.
func (a *Assembler) GetContext(ctx context.Context) (string, error) {
	a.mu.RLock()
	held, gen := a.context, a.generation
	a.mu.RUnlock()
	if held != "" {
		return held, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := a.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		built := a.Assemble(buildCtx, true, true)
		if built.Empty() {
			return "", ErrNoContext
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		// A Reload during the build invalidates it.
		if a.generation == gen {
			a.context = built.Context
		}
		return built.Context, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Reload drops the held context, runs the reload hooks and rebuilds.
func (a *Assembler) Reload(ctx context.Context) (string, error) {
	a.mu.Lock()
	a.context = ""
	a.generation++
	hooks := append([]func(){}, a.hooks...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	a.logger.Info("context cache cleared")

	return a.GetContext(ctx)
}

// Loaded reports whether a context is held and its size in bytes.
func (a *Assembler) Loaded() (bool, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.context != "", len(a.context)
}
