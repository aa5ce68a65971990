package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/oracle"
	"github.com/cruisectl/truthmarket/internal/registry"
	"github.com/cruisectl/truthmarket/internal/storage"
	"github.com/cruisectl/truthmarket/internal/token"
	"github.com/cruisectl/truthmarket/pkg/cache"
	"github.com/cruisectl/truthmarket/pkg/config"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/healthprobe"
	"github.com/cruisectl/truthmarket/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	snapshotCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	prices, err := setupOracle(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup oracle: %w", err)
	}

	bank := token.NewSimBank(logger)
	factory := registry.NewFactory(common.HexToAddress(cfg.RegistryAddress), prices, logger)
	hub := httpserver.NewHub(logger)

	service := NewService(&ServiceConfig{
		Store:   store,
		Bank:    bank,
		Prices:  prices,
		Factory: factory,
		Events:  hub,
		Cache:   snapshotCache,
		Logger:  logger,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Service:       service,
		Hub:           hub,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		hub:           hub,
		store:         store,
		bank:          bank,
		prices:        prices,
		factory:       factory,
		snapshotCache: snapshotCache,
		service:       service,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: cfg.CacheNumCounters,
		MaxCost:     cfg.CacheMaxCost,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		store, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return store, nil
	}

	return storage.NewMemoryStore(logger), nil
}

func setupOracle(cfg *config.Config, logger *zap.Logger) (oracle.Source, error) {
	if cfg.OracleMode == "http" {
		return oracle.NewClient(cfg.OracleURL, logger), nil
	}

	price, err := fixedpoint.DecFromString(cfg.OracleFixedPrice)
	if err != nil {
		return nil, fmt.Errorf("parse ORACLE_FIXED_PRICE: %w", err)
	}
	return oracle.NewFixed(map[string]fixedpoint.Dec{
		cfg.BootstrapAsset: price,
	}), nil
}
