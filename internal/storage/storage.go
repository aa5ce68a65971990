// Package storage persists market records: the immutable config written
// once at creation, the state singleton and the share ledger. A transition
// commits its state and touched shares in one atomic write.
package storage

import (
	"context"

	"github.com/cruisectl/truthmarket/internal/market"
)

// Record is everything persisted for one market, as loaded.
type Record struct {
	Config  market.Config
	Address string
	State   market.State
	Shares  map[market.ShareKey]market.Share
}

// Store is the interface for persisting markets.
type Store interface {
	// CreateMarket writes a freshly instantiated market: config, address
	// and zeroed state. Fails if the market id already exists.
	CreateMarket(ctx context.Context, cfg market.Config, address string, st market.State) error

	// LoadMarket loads one market's full record.
	LoadMarket(ctx context.Context, id string) (*Record, error)

	// ListMarketIDs returns the ids of all stored markets in stable order.
	ListMarketIDs(ctx context.Context) ([]string, error)

	// Commit atomically writes the post-transition state and the share
	// records the transition touched. All or nothing.
	Commit(ctx context.Context, id string, st market.State, dirty []market.ShareEntry) error

	// Close closes the storage connection.
	Close() error
}
