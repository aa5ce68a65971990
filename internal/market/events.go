package market

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/cruisectl/truthmarket/pkg/types"
)

// timeAttrLayout is how event attributes render timestamps.
const timeAttrLayout = time.RFC3339

// Event names emitted by the transitions. Consumers key off these; they are
// part of the engine's stable surface.
const (
	EventCreateMarket = "market_create"
	EventBuyShare     = "market_buy_share"
	EventSellShare    = "market_sell_share"
	EventResolve      = "market_resolve"
	EventWithdraw     = "market_withdraw"
)

// oddsAttribute renders both options' odds as a JSON array in slot order,
// the form consumers read off buy/sell/resolve events.
func oddsAttribute(cfg *Config, st *State) string {
	data, err := json.Marshal(Odds(cfg, st))
	if err != nil {
		return "[]"
	}
	return string(data)
}

// attrs is a small builder keeping handler event construction readable.
type attrs []types.Attribute

func (a attrs) add(key, value string) attrs {
	return append(a, types.Attr(key, value))
}

// NewCreateResult builds the instantiation event for a freshly created
// market. The registry owns creation, so unlike the transition events this
// one is assembled from the outside.
func NewCreateResult(cfg *Config, address string, instructions []types.Instruction) *Result {
	return &Result{
		Event: EventCreateMarket,
		Attributes: attrs{}.
			add("market_id", cfg.ID).
			add("address", address).
			add("title", cfg.Title).
			add("rule", string(cfg.Rule)).
			add("option_a", cfg.Options[0].Text).
			add("option_b", cfg.Options[1].Text).
			add("buy_token", cfg.BuyToken).
			add("asset_to_track", cfg.AssetToTrack).
			add("target_price", cfg.TargetPrice.String()).
			add("initial_price", cfg.InitialPrice.String()).
			add("start_time", cfg.StartTime.UTC().Format(timeAttrLayout)).
			add("end_time", cfg.EndTime.UTC().Format(timeAttrLayout)).
			add("admin", cfg.Admin),
		Instructions: instructions,
	}
}
