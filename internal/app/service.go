// Package app orchestrates the settlement engine against its
// collaborators: storage, the token subsystem, the price oracle and the
// event publisher. Every transition follows the same shape: load the
// market, apply the handler, commit state and touched shares, execute the
// emitted token instructions, publish the event.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/internal/oracle"
	"github.com/cruisectl/truthmarket/internal/registry"
	"github.com/cruisectl/truthmarket/internal/storage"
	"github.com/cruisectl/truthmarket/internal/token"
	"github.com/cruisectl/truthmarket/pkg/cache"
	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// snapshotTTL bounds how stale a cached market snapshot can get; every
// transition invalidates the entry anyway.
const snapshotTTL = 5 * time.Second

// Service exposes the market operations and queries. It is the single
// entry point the HTTP layer and the CLI talk to.
type Service struct {
	store   storage.Store
	bank    token.Executor
	prices  oracle.Source
	factory *registry.Factory
	events  Publisher
	cache   cache.Cache
	logger  *zap.Logger
}

// ServiceConfig holds the Service collaborators. Events and Cache are
// optional.
type ServiceConfig struct {
	Store   storage.Store
	Bank    token.Executor
	Prices  oracle.Source
	Factory *registry.Factory
	Events  Publisher
	Cache   cache.Cache
	Logger  *zap.Logger
}

// NewService assembles a Service.
func NewService(cfg *ServiceConfig) *Service {
	events := cfg.Events
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		store:   cfg.Store,
		bank:    cfg.Bank,
		prices:  cfg.Prices,
		factory: cfg.Factory,
		events:  events,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}
}

// CreateMarket instantiates and persists a new market, executes the token
// issuances and publishes the creation event.
func (s *Service) CreateMarket(ctx context.Context, p registry.Params) (market.Snapshot, error) {
	inst, err := s.factory.Instantiate(ctx, p)
	if err != nil {
		return market.Snapshot{}, err
	}

	cfg := inst.Market.Config()
	err = s.store.CreateMarket(ctx, cfg, inst.Market.Address(), inst.Market.State())
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("persist market: %w", err)
	}

	err = s.bank.Execute(inst.Result.Instructions)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("issue settlement tokens: %w", err)
	}

	s.events.Publish(cfg.ID, inst.Result)
	s.logger.Info("market-created",
		zap.String("market_id", cfg.ID),
		zap.String("address", inst.Market.Address()))

	return inst.Market.Snapshot(), nil
}

// Buy applies a buy transition to the market.
func (s *Service) Buy(ctx context.Context, marketID string, in market.BuyInput) (*market.Result, error) {
	return s.transition(ctx, marketID, "buy", func(m *market.Market) (*market.Result, error) {
		return m.Buy(in)
	})
}

// Sell applies a sell transition to the market.
func (s *Service) Sell(ctx context.Context, marketID string, in market.SellInput) (*market.Result, error) {
	return s.transition(ctx, marketID, "sell", func(m *market.Market) (*market.Result, error) {
		return m.Sell(in)
	})
}

// Resolve fetches the tracked asset's price from the oracle and applies
// the resolve transition with it. The observed price travels into the
// handler as an input, so the committed outcome replays without the
// oracle.
func (s *Service) Resolve(ctx context.Context, marketID, caller string, now time.Time) (*market.Result, error) {
	return s.transition(ctx, marketID, "resolve", func(m *market.Market) (*market.Result, error) {
		quote, err := s.prices.FetchPrice(ctx, m.Config().AssetToTrack)
		if err != nil {
			return nil, types.ErrUpstream("fetch resolution price: %v", err)
		}
		return m.Resolve(market.ResolveInput{Caller: caller, Now: now, Price: quote.Price})
	})
}

// Withdraw applies a withdraw transition to the market.
func (s *Service) Withdraw(ctx context.Context, marketID string, in market.WithdrawInput) (*market.Result, error) {
	return s.transition(ctx, marketID, "withdraw", func(m *market.Market) (*market.Result, error) {
		return m.Withdraw(in)
	})
}

// transition runs one handler against the loaded market and, on success,
// commits, executes instructions and publishes. A handler failure leaves
// storage and balances untouched.
func (s *Service) transition(ctx context.Context, marketID, name string, apply func(*market.Market) (*market.Result, error)) (*market.Result, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}

	res, err := apply(m)
	if err != nil {
		s.logger.Debug("transition-rejected",
			zap.String("market_id", marketID),
			zap.String("transition", name),
			zap.Error(err))
		return nil, err
	}

	// The bank batch is all-or-nothing and catches user-side failures
	// such as an unfunded payment, so it runs before the state commit.
	err = s.bank.Execute(res.Instructions)
	if err != nil {
		return nil, fmt.Errorf("execute %s instructions: %w", name, err)
	}

	err = s.store.Commit(ctx, marketID, m.State(), m.Shares().Dirty())
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", name, err)
	}
	m.Shares().ResetDirty()

	s.invalidateSnapshot(marketID)
	s.events.Publish(marketID, res)
	s.logger.Info("transition-committed",
		zap.String("market_id", marketID),
		zap.String("transition", name),
		zap.String("event", res.Event),
		zap.Int("instructions", len(res.Instructions)))

	return res, nil
}

// load assembles a Market from its persisted record.
func (s *Service) load(ctx context.Context, marketID string) (*market.Market, error) {
	rec, err := s.store.LoadMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	ledger := market.NewShareLedger()
	ledger.Load(rec.Shares)
	return market.New(rec.Config, rec.State, ledger, rec.Address), nil
}

// ListMarkets returns all stored market ids.
func (s *Service) ListMarkets(ctx context.Context) ([]string, error) {
	return s.store.ListMarketIDs(ctx)
}

// Snapshot returns the market's external view, served from cache when
// fresh.
func (s *Service) Snapshot(ctx context.Context, marketID string) (market.Snapshot, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(snapshotKey(marketID)); ok {
			if snap, ok := v.(market.Snapshot); ok {
				return snap, nil
			}
		}
	}

	m, err := s.load(ctx, marketID)
	if err != nil {
		return market.Snapshot{}, err
	}
	snap := m.Snapshot()

	if s.cache != nil {
		s.cache.Set(snapshotKey(marketID), snap, snapshotTTL)
	}
	return snap, nil
}

// Odds returns the market's current pari-mutuel odds.
func (s *Service) Odds(ctx context.Context, marketID string) ([2]market.OptionOdds, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return [2]market.OptionOdds{}, err
	}
	return m.Odds(), nil
}

// TotalsPerOption returns both options' aggregate stakes.
func (s *Service) TotalsPerOption(ctx context.Context, marketID string) ([2]market.OptionTotal, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return [2]market.OptionTotal{}, err
	}
	return m.TotalsPerOption(), nil
}

// UserShares returns one user's share records.
func (s *Service) UserShares(ctx context.Context, marketID, user string) ([]market.ShareView, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return m.UserShares(user), nil
}

// AllShares returns every share record of the market.
func (s *Service) AllShares(ctx context.Context, marketID string) ([]market.ShareView, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return nil, err
	}
	return m.AllShares(), nil
}

// PotentialWinnings returns the user's payout per option were it to win.
func (s *Service) PotentialWinnings(ctx context.Context, marketID, user string) ([2]market.OptionWinnings, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return [2]market.OptionWinnings{}, err
	}
	return m.PotentialWinnings(user), nil
}

// ActualWinnings returns the user's realized payout after resolution.
func (s *Service) ActualWinnings(ctx context.Context, marketID, user string) (types.Coin, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return types.Coin{}, err
	}
	return m.ActualWinnings(user), nil
}

// TaxRate returns the market's current sell-side exit tax rate.
func (s *Service) TaxRate(ctx context.Context, marketID string, now time.Time) (fixedpoint.Dec, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return fixedpoint.Dec{}, err
	}
	return m.TaxRate(now), nil
}

// SimulateSell previews a sell's tax and commission breakdown.
func (s *Service) SimulateSell(ctx context.Context, marketID, option string, amount fixedpoint.Amount, now time.Time) (market.SellQuote, error) {
	m, err := s.load(ctx, marketID)
	if err != nil {
		return market.SellQuote{}, err
	}
	return m.SimulateSell(option, amount, now)
}

func (s *Service) invalidateSnapshot(marketID string) {
	if s.cache != nil {
		s.cache.Delete(snapshotKey(marketID))
	}
}

func snapshotKey(marketID string) string {
	return "snapshot:" + marketID
}
