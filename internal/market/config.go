// Package market implements the settlement engine for a single two-outcome
// prediction market: the immutable configuration, the mutable state and
// share ledger, the tax/commission and odds/winnings calculators, and the
// buy/sell/resolve/withdraw transitions.
//
// Every transition is a pure function of (owned records, input) that either
// fully commits its mutations and returns the token-movement instructions
// to execute, or fails with a classified error and mutates nothing. Time
// and prices enter only as inputs; the package never reads a clock or
// queries an oracle itself.
package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// MaxCommissionBps is the commission ceiling: 10000 bps = 100%.
const MaxCommissionBps = 10000

// Rule is the market's resolution rule. It fixes both the two option labels
// and which label wins when the tracked price reaches the target.
type Rule string

const (
	// RuleUpDown resolves "Up" when the target price is reached, "Down"
	// otherwise. Used for short-horizon price-direction markets.
	RuleUpDown Rule = "up_down"
	// RulePriceAt resolves "Yes" when the target price is reached, "No"
	// otherwise. Used for will-price-be-above-X-at-time-T markets.
	RulePriceAt Rule = "price_at"
)

// Options returns the two option labels in slot order (A, B). The ordering
// is load-bearing: slot A is always the target-reached outcome.
func (r Rule) Options() ([2]string, error) {
	switch r {
	case RuleUpDown:
		return [2]string{"Up", "Down"}, nil
	case RulePriceAt:
		return [2]string{"Yes", "No"}, nil
	default:
		return [2]string{}, types.ErrValidation("unknown market rule %q", string(r))
	}
}

// DetermineWinner returns the winning option label for an observed price:
// the slot-A label when price >= target, the slot-B label otherwise.
func (r Rule) DetermineWinner(price, target fixedpoint.Dec) (string, error) {
	opts, err := r.Options()
	if err != nil {
		return "", err
	}
	if price.GTE(target) {
		return opts[0], nil
	}
	return opts[1], nil
}

// MarketOption is one of the two outcomes, with the denomination of the
// settlement token minted as the bearer receipt for positions in it.
type MarketOption struct {
	Text       string `json:"text"`
	TokenDenom string `json:"token_denom"`
}

// Config is the immutable configuration of one market instance. It is
// created once at instantiation and never mutated.
type Config struct {
	ID            string          `json:"id"`
	Admin         string          `json:"admin"`
	CommissionBps uint32          `json:"commission_bps"`
	Options       [2]MarketOption `json:"options"`
	BuyToken      string          `json:"buy_token"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`

	Title       string `json:"title"`
	Description string `json:"description"`
	BannerURL   string `json:"banner_url"`

	Oracle           string         `json:"oracle"`
	ResolutionSource string         `json:"resolution_source"`
	AssetToTrack     string         `json:"asset_to_track"`
	Rule             Rule           `json:"rule"`
	TargetPrice      fixedpoint.Dec `json:"target_price"`
	InitialPrice     fixedpoint.Dec `json:"initial_price"`
}

// OptionByText returns the option matching text and its slot index.
func (c *Config) OptionByText(text string) (MarketOption, int, bool) {
	for i, opt := range c.Options {
		if opt.Text == text {
			return opt, i, true
		}
	}
	return MarketOption{}, 0, false
}

// Validate checks the invariants the rest of the engine relies on.
func (c *Config) Validate() error {
	if c.ID == "" {
		return types.ErrValidation("market id cannot be empty")
	}
	if c.Admin == "" {
		return types.ErrValidation("admin cannot be empty")
	}
	if c.CommissionBps > MaxCommissionBps {
		return types.ErrValidation("commission %d bps exceeds %d", c.CommissionBps, MaxCommissionBps)
	}
	if c.BuyToken == "" {
		return types.ErrValidation("buy token cannot be empty")
	}
	if !c.EndTime.After(c.StartTime) {
		return types.ErrValidation("end time must be after start time")
	}

	opts, err := c.Rule.Options()
	if err != nil {
		return err
	}
	for i, opt := range c.Options {
		if opt.Text != opts[i] {
			return types.ErrValidation("option slot %d is %q, rule %q requires %q", i, opt.Text, string(c.Rule), opts[i])
		}
		if opt.TokenDenom == "" {
			return types.ErrValidation("option %q has no settlement token", opt.Text)
		}
	}
	if c.Options[0].TokenDenom == c.Options[1].TokenDenom {
		return types.ErrValidation("options must have distinct settlement tokens")
	}
	return nil
}
