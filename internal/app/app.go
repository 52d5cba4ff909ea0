// Package app wires configuration, storage, clients and services into the
// running FundVal application.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidewater/fundval/internal/clients/eastmoney"
	"github.com/tidewater/fundval/internal/common"
	"github.com/tidewater/fundval/internal/interfaces"
	"github.com/tidewater/fundval/internal/services/fund"
	"github.com/tidewater/fundval/internal/services/portfolio"
	"github.com/tidewater/fundval/internal/services/risk"
	"github.com/tidewater/fundval/internal/services/trade"
	"github.com/tidewater/fundval/internal/services/watchlist"
	"github.com/tidewater/fundval/internal/storage"
)

// App holds all initialized services, clients and storage.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Storage          interfaces.StorageManager
	Eastmoney        interfaces.ValuationSource
	PortfolioService interfaces.PortfolioService
	FundService      interfaces.FundService
	RiskService      interfaces.RiskService
	TradeService     interfaces.TradeService
	WatchlistService interfaces.WatchlistService
	DefaultAccount   string
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
	warmCancel      context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, the Eastmoney client and all services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - check provided path, FUNDVAL_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("FUNDVAL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundval.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/fundval.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emCfg := config.Clients.Eastmoney
	client := eastmoney.NewClient(
		eastmoney.WithBaseURL(emCfg.BaseURL),
		eastmoney.WithHistoryBaseURL(emCfg.HistoryBaseURL),
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(emCfg.RateLimit),
		eastmoney.WithTimeout(emCfg.GetTimeout()),
	)

	portfolioService := portfolio.NewService(storageManager, client, config.Portfolio, logger)
	fundService := fund.NewService(storageManager, client, config.Portfolio.MarketTimezone, logger)
	riskService := risk.NewService(storageManager, config.Risk, logger)
	tradeService := trade.NewService(storageManager, logger)
	watchlistService := watchlist.NewService(storageManager, client, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Storage:          storageManager,
		Eastmoney:        client,
		PortfolioService: portfolioService,
		FundService:      fundService,
		RiskService:      riskService,
		TradeService:     tradeService,
		WatchlistService: watchlistService,
		DefaultAccount:   config.Portfolio.DefaultAccount,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel schedulers, cancel nav warm, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.warmCancel != nil {
		a.warmCancel()
		a.warmCancel = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}

// StartNavWarm launches the background NAV warm goroutine.
func (a *App) StartNavWarm() {
	warmCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCancel = cancel
	go func() {
		defer cancel()
		warmNavHistory(warmCtx, a.FundService, a.Logger)
	}()
}
