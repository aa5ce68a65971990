package app

import (
	"github.com/cruisectl/truthmarket/internal/market"
)

// Publisher receives the event of every committed transition. The HTTP
// layer plugs its websocket hub in here; tests plug in a recorder.
type Publisher interface {
	Publish(marketID string, res *market.Result)
}

// NopPublisher drops events. Used when no event consumer is wired.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(string, *market.Result) {}
