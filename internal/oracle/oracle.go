// Package oracle fetches tracked-asset prices for market creation and
// resolution. The settlement engine never calls the oracle itself: prices
// are observed here and passed into transitions as plain inputs.
package oracle

import (
	"context"
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// Quote is one observed price for a tracked asset.
type Quote struct {
	Asset      string         `json:"asset"`
	Price      fixedpoint.Dec `json:"price"`
	ObservedAt time.Time      `json:"observed_at"`
}

// Source provides tracked-asset prices.
type Source interface {
	FetchPrice(ctx context.Context, asset string) (Quote, error)
}

// Fixed is a Source backed by a static price table. Used in tests and in
// simulation mode, where no upstream feed exists.
type Fixed struct {
	prices map[string]fixedpoint.Dec
	now    func() time.Time
}

// NewFixed creates a Fixed source from an asset -> price table.
func NewFixed(prices map[string]fixedpoint.Dec) *Fixed {
	return &Fixed{prices: prices, now: time.Now}
}

// SetPrice adds or replaces the price for an asset.
func (f *Fixed) SetPrice(asset string, price fixedpoint.Dec) {
	f.prices[asset] = price
}

// FetchPrice returns the configured price for the asset.
func (f *Fixed) FetchPrice(_ context.Context, asset string) (Quote, error) {
	price, ok := f.prices[asset]
	if !ok {
		return Quote{}, types.ErrUpstream("no price configured for asset %s", asset)
	}
	return Quote{Asset: asset, Price: price, ObservedAt: f.now()}, nil
}
