package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/oracle"
	"github.com/cruisectl/truthmarket/internal/registry"
	"github.com/cruisectl/truthmarket/internal/storage"
	"github.com/cruisectl/truthmarket/internal/token"
	"github.com/cruisectl/truthmarket/pkg/cache"
	"github.com/cruisectl/truthmarket/pkg/config"
	"github.com/cruisectl/truthmarket/pkg/healthprobe"
	"github.com/cruisectl/truthmarket/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	hub           *httpserver.Hub
	store         storage.Store
	bank          *token.SimBank
	prices        oracle.Source
	factory       *registry.Factory
	snapshotCache cache.Cache
	service       *Service
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
