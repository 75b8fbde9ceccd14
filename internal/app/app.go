// Package app wires configuration, clients, storage, and services into the
// shared core used by both cmd/thesis and cmd/thesis-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/thesis/internal/clients/eodhd"
	"github.com/bobmcallan/thesis/internal/clients/gemini"
	"github.com/bobmcallan/thesis/internal/clients/tavily"
	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/services/prompt"
	"github.com/bobmcallan/thesis/internal/services/render"
	"github.com/bobmcallan/thesis/internal/services/report"
	"github.com/bobmcallan/thesis/internal/services/research"
	"github.com/bobmcallan/thesis/internal/storage/badger"
)

// App holds all initialized clients and services.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Cache            interfaces.CacheStore
	TavilyClient     interfaces.SearchClient
	EODHDClient      interfaces.MarketDataClient
	GeminiClient     interfaces.LLMClient
	SearchAdapter    interfaces.SearchAdapter
	FinancialAdapter interfaces.FinancialAdapter
	Renderer         interfaces.DocumentRenderer
	ReportService    interfaces.ReportService
	Runs             *RunRegistry
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case THESIS_CONFIG and the binary
// directory are checked.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("THESIS_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "thesis.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/thesis.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths against the binary directory
	if config.Cache.Path != "" && !filepath.IsAbs(config.Cache.Path) {
		config.Cache.Path = filepath.Join(binDir, config.Cache.Path)
	}
	if config.OutputDir != "" && !filepath.IsAbs(config.OutputDir) {
		config.OutputDir = filepath.Join(binDir, config.OutputDir)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	// Missing credentials abort startup, never a request
	if missing := config.ValidateRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cache, err := badger.NewCacheStorage(logger, config.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	tavilyClient := tavily.NewClient(config.Clients.Tavily.APIKey,
		tavily.WithLogger(logger),
		tavily.WithBaseURL(config.Clients.Tavily.BaseURL),
		tavily.WithRateLimit(config.Clients.Tavily.RateLimit),
		tavily.WithTimeout(config.Clients.Tavily.GetTimeout()),
	)
	eodhdClient := eodhd.NewClient(config.Clients.EODHD.APIKey,
		eodhd.WithLogger(logger),
		eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
		eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
		eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
	)
	geminiClient, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
		gemini.WithLogger(logger),
		gemini.WithModel(config.Clients.Gemini.Model),
		gemini.WithTimeout(config.Clients.Gemini.GetTimeout()),
		gemini.WithRetryConfig(gemini.RetryConfig{
			MaxAttempts:       config.Clients.Gemini.MaxAttempts,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}),
	)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	searchAdapter := research.NewSearchAdapter(tavilyClient, cache, config, logger)
	financialAdapter := research.NewFinancialAdapter(eodhdClient, cache, config, logger)
	renderer := render.NewService(logger)
	reportService := report.NewService(
		searchAdapter,
		financialAdapter,
		prompt.NewBuilder(),
		geminiClient,
		renderer,
		config,
		logger,
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Cache:            cache,
		TavilyClient:     tavilyClient,
		EODHDClient:      eodhdClient,
		GeminiClient:     geminiClient,
		SearchAdapter:    searchAdapter,
		FinancialAdapter: financialAdapter,
		Renderer:         renderer,
		ReportService:    reportService,
		Runs:             NewRunRegistry(),
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Cache close failed")
		}
		a.Cache = nil
	}
}
