package storage

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cruisectl/truthmarket/internal/market"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// MemoryStore implements Store in process memory. Used in simulation mode
// and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	logger  *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	logger.Info("memory-store-initialized")
	return &MemoryStore{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// CreateMarket writes a new market record.
func (m *MemoryStore) CreateMarket(_ context.Context, cfg market.Config, address string, st market.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[cfg.ID]; exists {
		return types.ErrStateConflict("market %s already exists", cfg.ID)
	}
	m.records[cfg.ID] = &Record{
		Config:  cfg,
		Address: address,
		State:   st,
		Shares:  make(map[market.ShareKey]market.Share),
	}

	m.logger.Debug("market-created", zap.String("market_id", cfg.ID))
	return nil
}

// LoadMarket returns a copy of the record so callers cannot alias the
// stored maps.
func (m *MemoryStore) LoadMarket(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, types.ErrNotFound("market %s not found", id)
	}

	shares := make(map[market.ShareKey]market.Share, len(rec.Shares))
	for k, s := range rec.Shares {
		shares[k] = s
	}
	return &Record{
		Config:  rec.Config,
		Address: rec.Address,
		State:   rec.State,
		Shares:  shares,
	}, nil
}

// ListMarketIDs returns all market ids sorted.
func (m *MemoryStore) ListMarketIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Commit overwrites the state and the touched shares.
func (m *MemoryStore) Commit(_ context.Context, id string, st market.State, dirty []market.ShareEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return types.ErrNotFound("market %s not found", id)
	}
	rec.State = st
	for _, e := range dirty {
		rec.Shares[e.Key] = e.Share
	}

	m.logger.Debug("market-committed",
		zap.String("market_id", id),
		zap.Int("dirty_shares", len(dirty)))
	return nil
}

// Close is a no-op for memory storage.
func (m *MemoryStore) Close() error {
	m.logger.Info("closing-memory-store")
	return nil
}
