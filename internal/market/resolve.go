package market

import (
	"time"

	"github.com/cruisectl/truthmarket/pkg/fixedpoint"
	"github.com/cruisectl/truthmarket/pkg/types"
)

// ResolveInput is a request to fix the market outcome. The oracle
// observation is an input, not a query: replays see the recorded price.
type ResolveInput struct {
	// Caller must be the configured admin.
	Caller string
	// Now is the caller-supplied current time.
	Now time.Time
	// Price is the tracked asset's price observed from the oracle.
	Price fixedpoint.Dec
}

// Resolve performs the one-way Pending -> Resolved transition. The winner
// is the target-reached option when price >= target, the complementary
// option otherwise. No funds move; resolution only fixes the outcome that
// later withdrawals read. A second resolve fails with a state conflict.
func (m *Market) Resolve(in ResolveInput) (*Result, error) {
	if in.Caller != m.cfg.Admin {
		return nil, reject("resolve", types.ErrUnauthorized("only the admin can resolve the market"))
	}
	if in.Now.Before(m.cfg.EndTime) {
		return nil, reject("resolve", types.ErrStateConflict("market has not ended yet"))
	}
	if m.state.Status.IsResolved() {
		return nil, reject("resolve", types.ErrStateConflict("market is already resolved"))
	}

	winnerText, err := m.cfg.Rule.DetermineWinner(in.Price, m.cfg.TargetPrice)
	if err != nil {
		return nil, reject("resolve", err)
	}
	winner, _, ok := m.cfg.OptionByText(winnerText)
	if !ok {
		return nil, reject("resolve", types.ErrValidation("rule produced unknown option %q", winnerText))
	}

	// Final odds are captured before the status flips.
	finalOdds := oddsAttribute(&m.cfg, &m.state)

	m.state.Status = StatusResolved(winner)

	ResolvesTotal.Inc()

	return &Result{
		Event: EventResolve,
		Attributes: attrs{}.
			add("market_id", m.cfg.ID).
			add("winning_option", winner.Text).
			add("current_price", in.Price.String()).
			add("target_price", m.cfg.TargetPrice.String()).
			add("initial_price", m.cfg.InitialPrice.String()).
			add("user", in.Caller).
			add("total_value", m.state.TotalValue.Amount.String()).
			add("final_odds", finalOdds),
	}, nil
}
