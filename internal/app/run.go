package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/internal/registry"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("oracle-mode", a.cfg.OracleMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.wg.Add(1)
	go a.runHub()

	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	err := a.bootstrapMarket()
	if err != nil {
		return fmt.Errorf("bootstrap market: %w", err)
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) runHub() {
	defer a.wg.Done()
	a.hub.Run(a.ctx)
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

// bootstrapMarket creates the configured startup market when storage holds
// none. A restart against populated storage changes nothing.
func (a *App) bootstrapMarket() error {
	if !a.cfg.BootstrapMarket {
		return nil
	}

	ids, err := a.service.ListMarkets(a.ctx)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}
	if len(ids) > 0 {
		a.logger.Info("bootstrap-skipped-markets-exist", zap.Int("count", len(ids)))
		return nil
	}

	target, err := fixedpoint.DecFromString(a.cfg.BootstrapTargetPrice)
	if err != nil {
		return fmt.Errorf("parse BOOTSTRAP_TARGET_PRICE: %w", err)
	}

	now := time.Now().UTC()
	snap, err := a.service.CreateMarket(a.ctx, registry.Params{
		Admin:         a.cfg.BootstrapAdmin,
		CommissionBps: a.cfg.BootstrapCommissionBps,
		BuyToken:      a.cfg.BootstrapBuyToken,
		StartTime:     now,
		EndTime:       now.Add(a.cfg.BootstrapDuration),
		Title:         a.cfg.BootstrapTitle,
		AssetToTrack:  a.cfg.BootstrapAsset,
		Rule:          market.Rule(a.cfg.BootstrapRule),
		TargetPrice:   target,
	})
	if err != nil {
		return err
	}

	a.logger.Info("bootstrap-market-created",
		zap.String("market_id", snap.ID),
		zap.String("address", snap.Address),
		zap.String("asset", snap.AssetToTrack))

	return nil
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
