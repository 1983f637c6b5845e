package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/admissions-assistant/internal/assembler"
	"github.com/jonathan/admissions-assistant/internal/cache"
	"github.com/jonathan/admissions-assistant/internal/compress"
	"github.com/jonathan/admissions-assistant/internal/config"
	"github.com/jonathan/admissions-assistant/internal/corpus"
	"github.com/jonathan/admissions-assistant/internal/extract"
	"github.com/jonathan/admissions-assistant/internal/fetch"
	"github.com/jonathan/admissions-assistant/internal/llm"
	"github.com/jonathan/admissions-assistant/internal/logging"
	"github.com/jonathan/admissions-assistant/internal/scraper"
)

// app holds the components shared by the commands.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      cache.Store
	disk       *cache.DiskStore
	redis      *redis.Client
	assembler  *assembler.Assembler
	compressor *compress.Client
	session    *compress.Session
}

// newApp loads the configuration and wires every component except the
// generation client, which needs an API key.
func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	a := &app{cfg: cfg, logger: logger}

	a.disk = cache.NewDiskStore(cfg.CacheDir, cfg.CacheTTLDuration(), cache.WithLogger(logger))
	a.store = a.disk
	if cfg.CacheBackend == "redis" {
		a.redis, err = cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.store = cache.NewRedisStore(a.redis, cfg.CacheTTLDuration(), logger)
	}

	extractor := extract.New(extract.DefaultPDFBackend(), logger)
	loader := corpus.NewLoader(extractor, logger)

	var opts []scraper.Option
	if cfg.ScrapeUseBrowser {
		browser := fetch.NewBrowserRenderer(cfg.ScrapeTimeoutDuration(), cfg.ScrapeUserAgent)
		opts = append(opts, scraper.WithBrowser(browser))
		logger.Info("browser rendering enabled", zap.Stringer("renderer", browser))
	}
	web := scraper.New(scraper.Config{
		Enabled:   cfg.ScrapingEnabled,
		BaseURL:   cfg.UniversityWebsiteURL,
		Targets:   cfg.ScrapeTargets,
		Timeout:   cfg.ScrapeTimeoutDuration(),
		UserAgent: cfg.ScrapeUserAgent,
	}, a.store, logger, opts...)

	a.assembler = assembler.New(loader, web, cfg.CollegeDataDir, logger)

	a.compressor = compress.NewClient(compress.Config{
		APIKey:  cfg.ScaledownAPIKey,
		URL:     cfg.ScaledownAPIURL,
		Model:   cfg.ScaledownModel,
		Rate:    cfg.ScaledownRate,
		Timeout: cfg.ScaledownTimeoutDuration(),
	}, logger)

	mode, err := compress.ParseMode(cfg.CompressionMode)
	if err != nil {
		return nil, err
	}
	a.session = compress.NewSession(a.assembler, a.compressor, mode, logger)
	a.assembler.OnReload(a.session.Reset)

	logger.Debug("configuration loaded",
		zap.Any("settings", cfg.Summary()),
		zap.String("pdf_backend", extractor.PDFBackendName()),
		zap.String("compression_mode", string(a.session.Mode())))
	return a, nil
}

// generator creates the Gemini client from the configuration.
func (a *app) generator(ctx context.Context) (*llm.GeminiClient, error) {
	genCfg := llm.DefaultConfig().WithModel(a.cfg.GeminiModel)
	genCfg.Temperature = a.cfg.GeminiTemperature
	genCfg.TopP = a.cfg.GeminiTopP
	genCfg.MaxOutputTokens = a.cfg.GeminiMaxTokens

	client, err := llm.NewGeminiClient(ctx, genCfg, a.cfg.GeminiAPIKey, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return client, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}
