// Package app initializes configuration, storage, clients and services
// and hands the wired core to cmd/alphatalk-server.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"alphatalk/internal/clients/dart"
	"alphatalk/internal/clients/gemini"
	"alphatalk/internal/clients/naver"
	"alphatalk/internal/clients/newsapi"
	"alphatalk/internal/clients/yahoo"
	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/services/analysis"
	"alphatalk/internal/services/fusion"
	"alphatalk/internal/services/news"
	"alphatalk/internal/services/refresh"
	"alphatalk/internal/services/watch"
	"alphatalk/internal/storage"
)

// App holds all initialized services and clients. It is the shared
// core behind the HTTP server and the scheduler.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	Fusion      interfaces.FusionEngine
	News        interfaces.NewsService
	Analysis    interfaces.AnalysisService
	Watch       interfaces.WatchService
	Coordinator *refresh.Coordinator
	Hub         *refresh.EventHub
	StartupTime time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all services, clients and storage. configPath may
// be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("ALPHATALK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "alphatalk.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/alphatalk.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Data source clients. The fusion chain order is load-bearing:
	// domestic scrape first, broad market second, the same broad
	// source's statement fields third, filings last.
	naverClient := naver.NewClient(
		naver.WithBaseURL(config.Clients.Naver.BaseURL),
		naver.WithLogger(logger),
		naver.WithRateLimit(config.Clients.Naver.RateLimit),
		naver.WithTimeout(config.Clients.Naver.GetTimeout()),
	)
	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
	)

	providers := []interfaces.FundamentalsProvider{
		naverClient,
		yahooClient,
		yahoo.NewAlternate(yahooClient),
	}
	if config.Clients.Dart.APIKey != "" {
		providers = append(providers, dart.NewClient(
			config.Clients.Dart.APIKey,
			dart.WithBaseURL(config.Clients.Dart.BaseURL),
			dart.WithLogger(logger),
			dart.WithRateLimit(config.Clients.Dart.RateLimit),
			dart.WithTimeout(config.Clients.Dart.GetTimeout()),
		))
	} else {
		logger.Warn().Msg("DART API key not configured - filing fallback disabled")
	}

	fusionEngine := fusion.NewEngine(logger, providers...)

	if config.Clients.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	geminiOpts := []gemini.ClientOption{gemini.WithLogger(logger)}
	if config.Clients.Gemini.Model != "" {
		geminiOpts = append(geminiOpts, gemini.WithModel(config.Clients.Gemini.Model))
	}
	geminiClient, err := gemini.NewClient(ctx, config.Clients.Gemini.APIKey, geminiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	var newsService interfaces.NewsService
	if config.Clients.NewsAPI.APIKey != "" {
		newsClient := newsapi.NewClient(
			config.Clients.NewsAPI.APIKey,
			newsapi.WithBaseURL(config.Clients.NewsAPI.BaseURL),
			newsapi.WithLogger(logger),
			newsapi.WithRateLimit(config.Clients.NewsAPI.RateLimit),
			newsapi.WithTimeout(config.Clients.NewsAPI.GetTimeout()),
		)
		newsService = news.NewService(newsClient, geminiClient, logger,
			news.WithLookbackDays(config.Clients.NewsAPI.LookbackD))
	} else {
		logger.Warn().Msg("NewsAPI key not configured - news sections will be empty")
		newsService = news.NewUnavailable()
	}

	analysisService := analysis.NewService(
		fusionEngine,
		yahooClient,
		newsService,
		geminiClient,
		storageManager.AnalysisStore(),
		logger,
	)

	watchService := watch.NewService(storageManager.WatchlistStore(), storageManager.TickerStore(), logger)

	hub := refresh.NewEventHub(logger)
	coordinator := refresh.NewCoordinator(
		analysisService,
		storageManager.AnalysisStore(),
		watchService,
		hub,
		&config.Refresh,
		logger,
	)

	app := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		Fusion:      fusionEngine,
		News:        newsService,
		Analysis:    analysisService,
		Watch:       watchService,
		Coordinator: coordinator,
		Hub:         hub,
		StartupTime: time.Now(),
	}
	app.scheduler = NewScheduler(app)

	return app, nil
}

// Start launches the WebSocket hub and the cron scheduler.
func (a *App) Start() error {
	go a.Hub.Run()
	return a.scheduler.Start()
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.Hub.Stop()
	return a.Storage.Close()
}
